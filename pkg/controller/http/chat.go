package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
	"github.com/secmon-lab/docrev/pkg/usecase"
	"github.com/secmon-lab/docrev/pkg/utils/errutil"
	"github.com/secmon-lab/docrev/pkg/utils/logging"
)

// chatHandler streams a review turn as server-sent events. The
// request is validated and normalized before the stream opens, so
// structural errors produce a plain JSON error response with no
// partial stream.
func chatHandler(chat *usecase.ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req usecase.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid chat request body",
				goerr.T(types.ErrTagNormalization)))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			errutil.HandleHTTP(ctx, w, goerr.New("streaming is not supported by this connection"))
			return
		}

		streaming := false
		sink := func(event model.StreamEvent) error {
			if !streaming {
				w.Header().Set("Content-Type", "text/event-stream")
				w.Header().Set("Cache-Control", "no-cache")
				w.Header().Set("Connection", "keep-alive")
				w.WriteHeader(http.StatusOK)
				streaming = true
			}
			return writeEvent(w, flusher, event)
		}

		if err := chat.Chat(ctx, &req, sink); err != nil {
			if streaming {
				// The stream already carried an error event; the
				// response status is committed
				_ = errutil.Handle(ctx, err, "chat turn failed mid-stream")
				return
			}
			errutil.HandleHTTP(ctx, w, err)
			return
		}
	}
}

// writeEvent frames one event in SSE format and flushes it so the
// UI renders deltas incrementally
func writeEvent(w http.ResponseWriter, flusher http.Flusher, event model.StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal stream event")
	}

	if _, err := w.Write([]byte("data: ")); err != nil {
		return goerr.Wrap(err, "failed to write stream event")
	}
	if _, err := w.Write(data); err != nil {
		return goerr.Wrap(err, "failed to write stream event")
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return goerr.Wrap(err, "failed to write stream event")
	}
	flusher.Flush()

	return nil
}

// historyHandler rehydrates a conversation for the UI on mount
func historyHandler(history *usecase.HistoryUseCase) http.HandlerFunc {
	type response struct {
		UIMessages []model.Message `json:"uiMessages"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		threadID := types.ThreadID(r.URL.Query().Get("threadId"))
		if threadID == "" {
			errutil.HandleHTTP(ctx, w, goerr.New("threadId query parameter is required",
				goerr.T(types.ErrTagNormalization)))
			return
		}

		messages := history.Query(ctx, threadID)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response{UIMessages: messages}); err != nil {
			logging.From(ctx).Error("failed to encode history response", "error", err.Error())
		}
	}
}

// workflowHandler runs the one-shot review workflow
func workflowHandler(workflow *usecase.WorkflowUseCase) http.HandlerFunc {
	type request struct {
		Input string `json:"input"`
	}
	type response struct {
		Output string `json:"output"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid workflow request body",
				goerr.T(types.ErrTagNormalization)))
			return
		}

		output, err := workflow.RunReview(ctx, req.Input)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response{Output: output}); err != nil {
			logging.From(ctx).Error("failed to encode workflow response", "error", err.Error())
		}
	}
}
