package model

import (
	"time"

	"github.com/secmon-lab/docrev/pkg/domain/types"
)

// Profile is the working-memory document for a resource scope: a
// free-form structured text the agent accumulates and revises across
// turns (reviewer identity, preferences, past review history). It is
// created empty on first read and never deleted by this service.
type Profile struct {
	ResourceID types.ResourceID
	Body       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Empty reports whether the profile has accumulated any content yet
func (p *Profile) Empty() bool {
	return p == nil || p.Body == ""
}
