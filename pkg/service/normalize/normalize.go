package normalize

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
	"github.com/secmon-lab/docrev/pkg/service/extract"
	"github.com/secmon-lab/docrev/pkg/utils/logging"
)

const defaultMediaType = "application/octet-stream"

// Service converts heterogeneous multi-modal messages into a flat,
// model-ready message list. After normalization no file part
// survives: each becomes exactly one text or image part in place.
type Service interface {
	Normalize(ctx context.Context, messages []model.Message) ([]model.Message, error)
}

type service struct {
	extractor extract.Service
}

// New creates a normalizer backed by the given extractor
func New(extractor extract.Service) Service {
	return &service{extractor: extractor}
}

// Normalize walks messages strictly in input order. Attachments of
// one message are extracted concurrently; part order within the
// message is fixed by source position, not completion order.
// Structurally invalid input rejects the whole batch before any
// model call; a failing single attachment only degrades itself to a
// placeholder part.
func (s *service) Normalize(ctx context.Context, messages []model.Message) ([]model.Message, error) {
	for i := range messages {
		if err := messages[i].Validate(); err != nil {
			return nil, goerr.Wrap(err, "structurally invalid message",
				goerr.T(types.ErrTagNormalization),
				goerr.V("index", i),
			)
		}
	}

	out := make([]model.Message, len(messages))
	for i := range messages {
		normalized, err := s.normalizeMessage(ctx, messages[i])
		if err != nil {
			return nil, err
		}
		out[i] = normalized
	}

	return out, nil
}

func (s *service) normalizeMessage(ctx context.Context, msg model.Message) (model.Message, error) {
	parts := make([]model.Part, len(msg.Parts))

	eg, egCtx := errgroup.WithContext(ctx)
	for i := range msg.Parts {
		part := msg.Parts[i]

		if part.Kind != types.PartKindFile {
			parts[i] = part
			continue
		}

		slot := i
		eg.Go(func() error {
			parts[slot] = s.extractPart(egCtx, part)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return model.Message{}, goerr.Wrap(err, "failed to normalize message parts",
			goerr.T(types.ErrTagNormalization),
			goerr.V("messageID", msg.ID),
		)
	}

	normalized := msg
	normalized.Parts = parts
	return normalized, nil
}

// extractPart resolves one file part to its normalized replacement.
// A malformed attachment becomes a visible placeholder rather than
// aborting the batch.
func (s *service) extractPart(ctx context.Context, part model.Part) model.Part {
	file := extract.File{
		Filename:  part.Filename,
		MediaType: part.MediaType,
		URL:       part.URL,
	}
	if file.Filename == "" {
		file.Filename = "unknown"
	}
	if file.MediaType == "" {
		file.MediaType = defaultMediaType
	}

	unit, err := s.extractor.Extract(ctx, file)
	if err != nil {
		logging.From(ctx).Warn("attachment failed extraction, degrading to placeholder",
			"filename", file.Filename,
			"mediaType", file.MediaType,
			"error", err.Error(),
		)
		return model.TextPart(fmt.Sprintf("[Error: Could not parse attachment %s]", file.Filename))
	}

	switch unit.Kind {
	case extract.ContentImage:
		return model.ImagePart(unit.Value)
	default:
		return model.TextPart(unit.Value)
	}
}
