package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role represents the author of a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// AllRoles returns all valid roles
func AllRoles() []Role {
	return []Role{RoleUser, RoleAssistant, RoleSystem}
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return role, nil
}

// PartKind discriminates the variants of a message part.
// Kinds not listed here (tool-call, reasoning, and future framework
// kinds) are valid and pass through normalization unchanged.
type PartKind string

const (
	PartKindText      PartKind = "text"
	PartKindFile      PartKind = "file"
	PartKindImage     PartKind = "image"
	PartKindToolCall  PartKind = "tool-call"
	PartKindReasoning PartKind = "reasoning"
)

// String returns the string representation of the part kind
func (k PartKind) String() string {
	return string(k)
}

// ThreadID identifies one persisted conversation thread
type ThreadID string

// NewThreadID generates a new UUID v4 ThreadID
func NewThreadID() ThreadID {
	return ThreadID(uuid.New().String())
}

// String returns the string representation of the thread ID
func (id ThreadID) String() string {
	return string(id)
}

// ResourceID identifies the scope that groups threads for
// cross-thread memory. The default derivation buckets wall-clock
// time by hour; see NewResourceID.
type ResourceID string

// NewResourceID derives a ResourceID from the given time truncated
// to hour granularity (UTC). Two calls within the same clock hour
// yield the same ID.
func NewResourceID(t time.Time) ResourceID {
	u := t.UTC()
	return ResourceID(fmt.Sprintf("resource-%04d-%02d-%02d-%02d", u.Year(), u.Month(), u.Day(), u.Hour()))
}

// String returns the string representation of the resource ID
func (id ResourceID) String() string {
	return string(id)
}

// MessageID is an opaque identifier unique within a conversation
type MessageID string

// NewMessageID generates a new UUID v4 MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

// String returns the string representation of the message ID
func (id MessageID) String() string {
	return string(id)
}
