package memory

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
)

type profileRepository struct {
	mu       sync.RWMutex
	profiles map[types.ResourceID]*model.Profile
}

func newProfileRepository() *profileRepository {
	return &profileRepository{
		profiles: make(map[types.ResourceID]*model.Profile),
	}
}

func copyProfile(p *model.Profile) *model.Profile {
	copied := *p
	return &copied
}

// Get returns the stored profile, or an empty profile on first read.
// Profiles are never deleted by this repository.
func (r *profileRepository) Get(ctx context.Context, resourceID types.ResourceID) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.profiles[resourceID]
	if !exists {
		return &model.Profile{ResourceID: resourceID}, nil
	}

	return copyProfile(profile), nil
}

func (r *profileRepository) Put(ctx context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := copyProfile(profile)
	if existing, ok := r.profiles[stored.ResourceID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.profiles[stored.ResourceID] = stored
	return nil
}
