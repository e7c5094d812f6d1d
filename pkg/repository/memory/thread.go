package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
)

type threadRepository struct {
	mu      sync.RWMutex
	threads map[types.ThreadID]*model.Thread
}

func newThreadRepository() *threadRepository {
	return &threadRepository{
		threads: make(map[types.ThreadID]*model.Thread),
	}
}

func copyThread(t *model.Thread) *model.Thread {
	copied := *t
	return &copied
}

func (r *threadRepository) Create(ctx context.Context, thread *model.Thread) (*model.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyThread(thread)
	if created.ID == "" {
		created.ID = types.NewThreadID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.threads[created.ID] = created
	return copyThread(created), nil
}

func (r *threadRepository) Get(ctx context.Context, id types.ThreadID) (*model.Thread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	thread, exists := r.threads[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "thread not found", goerr.V("id", id))
	}

	return copyThread(thread), nil
}

func (r *threadRepository) ListByResource(ctx context.Context, resourceID types.ResourceID) ([]*model.Thread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Thread, 0)
	for _, t := range r.threads {
		if t.ResourceID == resourceID {
			result = append(result, copyThread(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}
