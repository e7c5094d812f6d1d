package model

import "github.com/secmon-lab/docrev/pkg/domain/types"

// StreamEventType discriminates the typed events of an assistant
// response stream
type StreamEventType string

const (
	StreamEventTextDelta      StreamEventType = "text-delta"
	StreamEventReasoningDelta StreamEventType = "reasoning-delta"
	StreamEventToolCall       StreamEventType = "tool-call"
	StreamEventToolResult     StreamEventType = "tool-result"
	StreamEventError          StreamEventType = "error"
	StreamEventFinish         StreamEventType = "finish"
)

// StreamEvent is one element of the ordered, finite, non-restartable
// event sequence produced by a chat turn. The finish event is
// terminal and carries the assigned identity pair so the UI can echo
// it on subsequent turns.
type StreamEvent struct {
	Type  StreamEventType `json:"type"`
	Delta string          `json:"delta,omitempty"`
	Tool  string          `json:"tool,omitempty"`
	Data  map[string]any  `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`

	ThreadID   types.ThreadID   `json:"threadId,omitempty"`
	ResourceID types.ResourceID `json:"resourceId,omitempty"`
}
