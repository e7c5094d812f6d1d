package interfaces

import (
	"context"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
)

// Repository defines the interface for conversation persistence.
// Isolation is by resource/thread key, not by locking: concurrent
// writers to the same thread are not defended against (single active
// writer per thread, enforced by caller discipline).
type Repository interface {
	Thread() ThreadRepository
	Message() MessageRepository
	Profile() ProfileRepository

	Close() error
}

// ThreadRepository manages thread records
type ThreadRepository interface {
	Create(ctx context.Context, thread *model.Thread) (*model.Thread, error)
	Get(ctx context.Context, id types.ThreadID) (*model.Thread, error)
	ListByResource(ctx context.Context, resourceID types.ResourceID) ([]*model.Thread, error)
}

// MessageRepository manages persisted conversation messages.
// History is append-only: a truncated assistant turn left behind by
// a cancelled stream is still valid context for the next turn.
type MessageRepository interface {
	// Append stores records at the tail of the thread, assigning
	// per-thread sequence numbers in slice order.
	Append(ctx context.Context, records []*model.Record) error

	// ListRecent returns the most recent n records of a thread in
	// stored order (most-recent last).
	ListRecent(ctx context.Context, threadID types.ThreadID, n int) ([]*model.Record, error)

	// ListByThread returns all records of a thread in stored order.
	ListByThread(ctx context.Context, threadID types.ThreadID) ([]*model.Record, error)

	// FindByEmbedding returns the records nearest to the embedding by
	// cosine similarity across the whole resource scope (cross-thread).
	FindByEmbedding(ctx context.Context, resourceID types.ResourceID, embedding []float32, limit int) ([]*model.Record, error)

	// Neighbors returns the records surrounding seq within a thread:
	// up to before records preceding it and after records following
	// it, including the record at seq itself, in stored order.
	Neighbors(ctx context.Context, threadID types.ThreadID, seq int64, before, after int) ([]*model.Record, error)
}

// ProfileRepository manages the working-memory profile per resource
type ProfileRepository interface {
	// Get returns the profile for the resource, or an empty profile
	// if none has been written yet.
	Get(ctx context.Context, resourceID types.ResourceID) (*model.Profile, error)
	Put(ctx context.Context, profile *model.Profile) error
}
