package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
	"github.com/secmon-lab/docrev/pkg/service/extract"
	"github.com/secmon-lab/docrev/pkg/service/recall"
)

func emptyRecallContext() *recall.Context {
	return &recall.Context{Profile: &model.Profile{}}
}

// WorkflowUseCase runs the one-shot review workflow: a single
// generation step without conversation memory
type WorkflowUseCase struct {
	uc *UseCases
}

func newWorkflowUseCase(uc *UseCases) *WorkflowUseCase {
	return &WorkflowUseCase{uc: uc}
}

// RunReview generates a review for a single document. The input is
// either raw text or a base64 data URI; data URIs go through the
// same extraction path as chat attachments, so a broken document
// still produces a review of the placeholder rather than an error.
func (w *WorkflowUseCase) RunReview(ctx context.Context, input string) (string, error) {
	if input == "" {
		return "", goerr.New("workflow input is empty", goerr.T(types.ErrTagNormalization))
	}

	content := input
	if strings.HasPrefix(input, "data:") {
		unit, err := w.uc.extractor.Extract(ctx, extract.File{
			Filename:  "document",
			MediaType: dataURIMediaType(input),
			URL:       input,
		})
		if err != nil {
			return "", goerr.Wrap(err, "failed to extract workflow document")
		}
		content = unit.Value
	}

	systemPrompt, err := w.uc.Chat.buildSystemPrompt(false, emptyRecallContext(), nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to build workflow prompt")
	}

	session, err := w.uc.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create model session", goerr.T(types.ErrTagUpstreamModel))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(content))
	if err != nil {
		return "", goerr.Wrap(err, "review generation failed", goerr.T(types.ErrTagUpstreamModel))
	}

	return strings.Join(resp.Texts, "\n"), nil
}

// dataURIMediaType returns the media type of a data URI, or the
// octet-stream default when the URI is malformed. Malformed URIs
// are rejected downstream by the extractor.
func dataURIMediaType(uri string) string {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "application/octet-stream"
	}
	mediaType, _, ok := strings.Cut(rest, ";")
	if !ok || mediaType == "" {
		return "application/octet-stream"
	}
	return mediaType
}
