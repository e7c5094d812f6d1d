package model_test

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
)

func TestMessageValidate(t *testing.T) {
	t.Run("valid message", func(t *testing.T) {
		msg := model.Message{
			ID:    types.NewMessageID(),
			Role:  types.RoleUser,
			Parts: []model.Part{model.TextPart("hello")},
		}
		gt.NoError(t, msg.Validate())
	})

	t.Run("empty parts slice is valid", func(t *testing.T) {
		msg := model.Message{
			Role:  types.RoleAssistant,
			Parts: []model.Part{},
		}
		gt.NoError(t, msg.Validate())
	})

	t.Run("invalid role", func(t *testing.T) {
		msg := model.Message{
			Role:  types.Role("moderator"),
			Parts: []model.Part{model.TextPart("hello")},
		}
		err := msg.Validate()
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagNormalization)).True()
	})

	t.Run("missing parts", func(t *testing.T) {
		msg := model.Message{Role: types.RoleUser}
		err := msg.Validate()
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagNormalization)).True()
	})
}

func TestMessageText(t *testing.T) {
	t.Run("concatenates text parts only", func(t *testing.T) {
		msg := model.Message{
			Role: types.RoleUser,
			Parts: []model.Part{
				model.TextPart("first"),
				model.ImagePart("https://example.com/chart.png"),
				model.TextPart("second"),
			},
		}
		gt.Value(t, msg.Text()).Equal("first\nsecond")
	})

	t.Run("no text parts", func(t *testing.T) {
		msg := model.Message{
			Role:  types.RoleUser,
			Parts: []model.Part{model.ImagePart("https://example.com/chart.png")},
		}
		gt.Value(t, msg.Text()).Equal("")
	})
}
