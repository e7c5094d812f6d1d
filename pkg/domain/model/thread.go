package model

import (
	"time"

	"github.com/secmon-lab/docrev/pkg/domain/types"
)

// Thread is one persisted conversation under a resource scope
type Thread struct {
	ID         types.ThreadID
	ResourceID types.ResourceID
	Title      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Record is a persisted message: the wire message plus the storage
// attributes used for ordering and semantic recall. Seq is assigned
// per thread in append order.
type Record struct {
	Message
	ThreadID   types.ThreadID
	ResourceID types.ResourceID
	Seq        int64
	Embedding  []float32
	CreatedAt  time.Time
}
