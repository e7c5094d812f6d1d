package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures so that controller and use case
// layers can map them to recovery behavior without string matching.
var (
	// ErrTagMalformedAttachment marks a file part that violates the
	// data URI contract. Recovered locally into a placeholder.
	ErrTagMalformedAttachment = goerr.NewTag("malformed_attachment")

	// ErrTagExtraction marks a parser failure (PDF/slide). Recovered
	// locally into a placeholder, logged, never surfaced as HTTP error.
	ErrTagExtraction = goerr.NewTag("extraction_failure")

	// ErrTagNormalization marks structurally invalid input. The
	// request is rejected before any model call.
	ErrTagNormalization = goerr.NewTag("normalization_error")

	// ErrTagMemoryRead marks storage unavailability on the read path.
	// Degrades to an empty context.
	ErrTagMemoryRead = goerr.NewTag("memory_read_error")

	// ErrTagMemoryWrite marks storage unavailability on the write
	// path. Logged, does not fail the user-visible turn.
	ErrTagMemoryWrite = goerr.NewTag("memory_write_error")

	// ErrTagUpstreamModel marks a model/agent call failure. Surfaced
	// to the UI as a failed turn, no automatic retry at this layer.
	ErrTagUpstreamModel = goerr.NewTag("upstream_model_error")
)
