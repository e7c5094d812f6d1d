package usecase

import (
	"context"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
	"github.com/secmon-lab/docrev/pkg/utils/logging"
)

// HistoryUseCase rehydrates a conversation for the UI on mount
type HistoryUseCase struct {
	uc *UseCases
}

func newHistoryUseCase(uc *UseCases) *HistoryUseCase {
	return &HistoryUseCase{uc: uc}
}

// Query returns the UI messages of a thread in stored order.
// Storage failures degrade to an empty history: the UI renders an
// empty conversation rather than an error page.
func (h *HistoryUseCase) Query(ctx context.Context, threadID types.ThreadID) []model.Message {
	records, err := h.uc.repo.Message().ListByThread(ctx, threadID)
	if err != nil {
		logging.From(ctx).Error("failed to load thread history, returning empty",
			"threadID", threadID,
			"error", err.Error(),
		)
		return []model.Message{}
	}

	messages := make([]model.Message, 0, len(records))
	for _, r := range records {
		messages = append(messages, r.Message)
	}

	return messages
}
