package normalize_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
	"github.com/secmon-lab/docrev/pkg/service/extract"
	"github.com/secmon-lab/docrev/pkg/service/normalize"
)

// mockExtractor resolves attachments by media type without touching
// real parsers
type mockExtractor struct {
	extractFn func(ctx context.Context, file extract.File) (extract.ContentUnit, error)
}

func (m *mockExtractor) Extract(ctx context.Context, file extract.File) (extract.ContentUnit, error) {
	if m.extractFn != nil {
		return m.extractFn(ctx, file)
	}
	return extract.ContentUnit{Kind: extract.ContentText, Value: "extracted: " + file.Filename}, nil
}

func TestNormalize(t *testing.T) {
	ctx := context.Background()

	t.Run("preserves message and part order", func(t *testing.T) {
		svc := normalize.New(&mockExtractor{
			extractFn: func(ctx context.Context, file extract.File) (extract.ContentUnit, error) {
				if file.MediaType == "image/png" {
					return extract.ContentUnit{Kind: extract.ContentImage, Value: file.URL}, nil
				}
				return extract.ContentUnit{Kind: extract.ContentText, Value: "[PDF: " + file.Filename + "]\n\nbody"}, nil
			},
		})

		messages := []model.Message{
			{
				ID:   types.NewMessageID(),
				Role: types.RoleUser,
				Parts: []model.Part{
					model.TextPart("please review"),
					model.FilePart("chart.png", "image/png", "data:image/png;base64,AAAA"),
					model.FilePart("report.pdf", "application/pdf", "data:application/pdf;base64,AAAA"),
					model.TextPart("focus on chapter 2"),
				},
			},
		}

		out, err := svc.Normalize(ctx, messages)
		gt.NoError(t, err).Required()
		gt.Array(t, out).Length(1).Required()
		gt.Array(t, out[0].Parts).Length(4).Required()

		gt.Value(t, out[0].Parts[0].Kind).Equal(types.PartKindText)
		gt.Value(t, out[0].Parts[0].Text).Equal("please review")
		gt.Value(t, out[0].Parts[1].Kind).Equal(types.PartKindImage)
		gt.Value(t, out[0].Parts[1].URL).Equal("data:image/png;base64,AAAA")
		gt.Value(t, out[0].Parts[2].Kind).Equal(types.PartKindText)
		gt.Value(t, out[0].Parts[2].Text).Equal("[PDF: report.pdf]\n\nbody")
		gt.Value(t, out[0].Parts[3].Text).Equal("focus on chapter 2")
	})

	t.Run("input messages are not mutated", func(t *testing.T) {
		svc := normalize.New(&mockExtractor{})

		messages := []model.Message{
			{
				Role:  types.RoleUser,
				Parts: []model.Part{model.FilePart("a.pdf", "application/pdf", "data:application/pdf;base64,AAAA")},
			},
		}

		_, err := svc.Normalize(ctx, messages)
		gt.NoError(t, err).Required()
		gt.Value(t, messages[0].Parts[0].Kind).Equal(types.PartKindFile)
	})

	t.Run("non-file kinds pass through untouched", func(t *testing.T) {
		svc := normalize.New(&mockExtractor{})

		toolCall := model.Part{
			Kind: types.PartKindToolCall,
			Data: map[string]any{"toolName": "search", "args": "chapter 2"},
		}
		messages := []model.Message{
			{Role: types.RoleAssistant, Parts: []model.Part{toolCall}},
		}

		out, err := svc.Normalize(ctx, messages)
		gt.NoError(t, err).Required()
		gt.Value(t, out[0].Parts[0]).Equal(toolCall)
	})

	t.Run("failing attachment degrades to placeholder", func(t *testing.T) {
		svc := normalize.New(&mockExtractor{
			extractFn: func(ctx context.Context, file extract.File) (extract.ContentUnit, error) {
				return extract.ContentUnit{}, goerr.New("not a data URI", goerr.T(types.ErrTagMalformedAttachment))
			},
		})

		messages := []model.Message{
			{
				Role: types.RoleUser,
				Parts: []model.Part{
					model.TextPart("check this"),
					model.FilePart("broken.pdf", "application/pdf", "https://example.com/broken.pdf"),
				},
			},
		}

		out, err := svc.Normalize(ctx, messages)
		gt.NoError(t, err).Required()
		gt.Array(t, out[0].Parts).Length(2).Required()
		gt.Value(t, out[0].Parts[1].Kind).Equal(types.PartKindText)
		gt.Value(t, out[0].Parts[1].Text).Equal("[Error: Could not parse attachment broken.pdf]")
	})

	t.Run("missing filename defaults to unknown", func(t *testing.T) {
		svc := normalize.New(&mockExtractor{
			extractFn: func(ctx context.Context, file extract.File) (extract.ContentUnit, error) {
				gt.Value(t, file.Filename).Equal("unknown")
				gt.Value(t, file.MediaType).Equal("application/octet-stream")
				return extract.ContentUnit{}, goerr.New("unreadable")
			},
		})

		messages := []model.Message{
			{Role: types.RoleUser, Parts: []model.Part{model.FilePart("", "", "https://example.com/blob")}},
		}

		out, err := svc.Normalize(ctx, messages)
		gt.NoError(t, err).Required()
		gt.Value(t, out[0].Parts[0].Text).Equal("[Error: Could not parse attachment unknown]")
	})

	t.Run("invalid role rejects the whole batch", func(t *testing.T) {
		svc := normalize.New(&mockExtractor{})

		messages := []model.Message{
			{Role: types.RoleUser, Parts: []model.Part{model.TextPart("fine")}},
			{Role: types.Role("moderator"), Parts: []model.Part{model.TextPart("bad")}},
		}

		_, err := svc.Normalize(ctx, messages)
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagNormalization)).True()
	})

	t.Run("missing parts rejects the whole batch", func(t *testing.T) {
		svc := normalize.New(&mockExtractor{})

		messages := []model.Message{
			{Role: types.RoleUser},
		}

		_, err := svc.Normalize(ctx, messages)
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagNormalization)).True()
	})
}
