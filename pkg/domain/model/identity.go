package model

import (
	"time"

	"github.com/secmon-lab/docrev/pkg/domain/types"
)

// ConversationIdentity is the (resource, thread) pair that scopes
// which persisted conversation state is loaded and extended. Both
// IDs are carried explicitly end-to-end; neither is derived from
// the other.
type ConversationIdentity struct {
	ResourceID types.ResourceID
	ThreadID   types.ThreadID
}

// HasThread reports whether a thread has been assigned. Absence
// means the backend is creating a new thread on this turn.
func (c ConversationIdentity) HasThread() bool {
	return c.ThreadID != ""
}

// ResourceIDPolicy derives the resource scope key for a session that
// does not yet carry one. The default buckets wall-clock time by
// hour, which trades multi-user isolation for zero-auth sessions;
// deployments with real identity should supply their own policy.
type ResourceIDPolicy func(now time.Time) types.ResourceID

// HourBucketPolicy is the default ResourceIDPolicy
func HourBucketPolicy(now time.Time) types.ResourceID {
	return types.NewResourceID(now)
}

// ResolveIdentity returns the identity for a request. A resource ID
// supplied by the caller always wins: it was fixed at session start
// and recomputing it across an hour boundary would silently fork
// the memory scope.
func ResolveIdentity(resourceID types.ResourceID, threadID types.ThreadID, policy ResourceIDPolicy, now time.Time) ConversationIdentity {
	if policy == nil {
		policy = HourBucketPolicy
	}
	id := ConversationIdentity{
		ResourceID: resourceID,
		ThreadID:   threadID,
	}
	if id.ResourceID == "" {
		id.ResourceID = policy(now)
	}
	return id
}
