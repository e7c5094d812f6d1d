package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docrev/pkg/domain/types"
)

// EmbeddingDimension is the dimension of message embedding vectors
// used for semantic recall
const EmbeddingDimension = 768

// Part is one unit of multi-modal content within a message. It is a
// closed tagged variant: Kind selects which fields are meaningful.
// Unrecognized kinds are valid and carry their payload opaquely in
// Data so they survive a round trip through normalization untouched.
type Part struct {
	Kind types.PartKind `json:"type"`

	// Text is set for text parts
	Text string `json:"text,omitempty"`

	// Filename, MediaType and URL are set for file parts
	// (pre-normalization only) and image parts (URL only)
	Filename  string `json:"filename,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	URL       string `json:"url,omitempty"`

	// Data carries the payload of pass-through kinds such as
	// tool-call and reasoning
	Data map[string]any `json:"data,omitempty"`
}

// TextPart builds a text part
func TextPart(text string) Part {
	return Part{Kind: types.PartKindText, Text: text}
}

// ImagePart builds a post-normalization image part
func ImagePart(url string) Part {
	return Part{Kind: types.PartKindImage, URL: url}
}

// FilePart builds a pre-normalization file attachment part
func FilePart(filename, mediaType, url string) Part {
	return Part{Kind: types.PartKindFile, Filename: filename, MediaType: mediaType, URL: url}
}

// Message is one turn in a conversation
type Message struct {
	ID       types.MessageID `json:"id"`
	Role     types.Role      `json:"role"`
	Parts    []Part          `json:"parts"`
	Metadata *Metadata       `json:"metadata,omitempty"`
}

// Metadata carries the identity pair once assigned by the backend
type Metadata struct {
	ThreadID   types.ThreadID   `json:"threadId,omitempty"`
	ResourceID types.ResourceID `json:"resourceId,omitempty"`
}

// Validate checks the structural invariants of a message. Parts may
// be of any kind here; content rules are the normalizer's concern.
func (m *Message) Validate() error {
	if !m.Role.IsValid() {
		return goerr.New("invalid message role",
			goerr.T(types.ErrTagNormalization),
			goerr.V("role", string(m.Role)),
		)
	}
	if m.Parts == nil {
		return goerr.New("message parts are missing",
			goerr.T(types.ErrTagNormalization),
			goerr.V("messageID", m.ID),
		)
	}
	return nil
}

// Text concatenates all text parts of the message in order. Used for
// thread titles, embeddings and transcript rendering.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Kind != types.PartKindText {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p.Text
	}
	return out
}
