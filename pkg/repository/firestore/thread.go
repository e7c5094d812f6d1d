package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/secmon-lab/docrev/pkg/domain/interfaces"
	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
)

type threadRepository struct {
	client *firestore.Client
}

var _ interfaces.ThreadRepository = &threadRepository{}

func newThreadRepository(client *firestore.Client) *threadRepository {
	return &threadRepository{client: client}
}

type threadDoc struct {
	ID         string    `firestore:"ID"`
	ResourceID string    `firestore:"ResourceID"`
	Title      string    `firestore:"Title"`
	CreatedAt  time.Time `firestore:"CreatedAt"`
	UpdatedAt  time.Time `firestore:"UpdatedAt"`
}

func toThreadDoc(t *model.Thread) *threadDoc {
	return &threadDoc{
		ID:         string(t.ID),
		ResourceID: string(t.ResourceID),
		Title:      t.Title,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func fromThreadDoc(d *threadDoc) *model.Thread {
	return &model.Thread{
		ID:         types.ThreadID(d.ID),
		ResourceID: types.ResourceID(d.ResourceID),
		Title:      d.Title,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (r *threadRepository) Create(ctx context.Context, thread *model.Thread) (*model.Thread, error) {
	created := *thread
	if created.ID == "" {
		created.ID = types.NewThreadID()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	doc := toThreadDoc(&created)
	if _, err := r.client.Collection(threadsCollection).Doc(doc.ID).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create thread", goerr.V("threadID", created.ID))
	}

	return &created, nil
}

func (r *threadRepository) Get(ctx context.Context, id types.ThreadID) (*model.Thread, error) {
	snap, err := r.client.Collection(threadsCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "thread not found", goerr.V("threadID", id))
		}
		return nil, goerr.Wrap(err, "failed to get thread", goerr.V("threadID", id))
	}

	var d threadDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal thread")
	}

	return fromThreadDoc(&d), nil
}

func (r *threadRepository) ListByResource(ctx context.Context, resourceID types.ResourceID) ([]*model.Thread, error) {
	iter := r.client.Collection(threadsCollection).
		Where("ResourceID", "==", string(resourceID)).
		OrderBy("CreatedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	threads := make([]*model.Thread, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate threads")
		}

		var d threadDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal thread")
		}

		threads = append(threads, fromThreadDoc(&d))
	}

	return threads, nil
}
