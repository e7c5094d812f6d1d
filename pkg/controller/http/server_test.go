package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	httpctrl "github.com/secmon-lab/docrev/pkg/controller/http"
	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
	"github.com/secmon-lab/docrev/pkg/repository/memory"
	"github.com/secmon-lab/docrev/pkg/usecase"
)

type mockLLMSession struct{}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return &gollem.Response{Texts: []string{"The draft reads well overall."}}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	ch := make(chan *gollem.Response, 2)
	ch <- &gollem.Response{Texts: []string{"Chapter two "}}
	ch <- &gollem.Response{Texts: []string{"reads well."}}
	close(ch)
	return ch, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) { return nil, nil }
func (s *mockLLMSession) AppendHistory(*gollem.History) error { return nil }
func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockLLMClient struct{}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	result := make([][]float64, len(input))
	for i := range input {
		result[i] = []float64{1, 0, 0}
	}
	return result, nil
}

func newTestServer(repo *memory.Memory) *httpctrl.Server {
	uc := usecase.New(repo, &mockLLMClient{})
	return httpctrl.New(uc)
}

// parseSSE splits a text/event-stream body into its decoded events
func parseSSE(t *testing.T, body string) []model.StreamEvent {
	t.Helper()

	var events []model.StreamEvent
	for _, line := range strings.Split(body, "\n") {
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev model.StreamEvent
		gt.NoError(t, json.Unmarshal([]byte(data), &ev)).Required()
		events = append(events, ev)
	}
	return events
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(memory.New())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, rec.Body.String()).Contains(`"status":"ok"`)
}

func TestChatEndpoint(t *testing.T) {
	t.Run("streams events and identity", func(t *testing.T) {
		srv := newTestServer(memory.New())

		payload, err := json.Marshal(map[string]any{
			"messages": []model.Message{{
				ID:    types.NewMessageID(),
				Role:  types.RoleUser,
				Parts: []model.Part{model.TextPart("review chapter two")},
			}},
		})
		gt.NoError(t, err).Required()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload))
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Header().Get("Content-Type")).Equal("text/event-stream")

		events := parseSSE(t, rec.Body.String())
		gt.Array(t, events).Length(3).Required()
		gt.Value(t, events[0].Type).Equal(model.StreamEventTextDelta)
		gt.Value(t, events[0].Delta).Equal("Chapter two ")
		gt.Value(t, events[1].Delta).Equal("reads well.")
		gt.Value(t, events[2].Type).Equal(model.StreamEventFinish)
		gt.String(t, string(events[2].ThreadID)).NotEqual("")
		gt.String(t, string(events[2].ResourceID)).NotEqual("")
	})

	t.Run("invalid JSON body is a bad request", func(t *testing.T) {
		srv := newTestServer(memory.New())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
		gt.String(t, rec.Body.String()).Contains("error")
	})

	t.Run("empty message list is a bad request", func(t *testing.T) {
		srv := newTestServer(memory.New())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestHistoryEndpoint(t *testing.T) {
	t.Run("returns stored messages", func(t *testing.T) {
		repo := memory.New()
		threadID := types.NewThreadID()
		ctx := context.Background()

		gt.NoError(t, repo.Message().Append(ctx, []*model.Record{
			{
				Message: model.Message{
					ID:    types.NewMessageID(),
					Role:  types.RoleUser,
					Parts: []model.Part{model.TextPart("first question")},
				},
				ThreadID: threadID,
			},
		})).Required()

		srv := newTestServer(repo)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/history?threadId="+threadID.String(), nil)
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			UIMessages []model.Message `json:"uiMessages"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Array(t, resp.UIMessages).Length(1).Required()
		gt.Value(t, resp.UIMessages[0].Text()).Equal("first question")
	})

	t.Run("missing threadId is a bad request", func(t *testing.T) {
		srv := newTestServer(memory.New())

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown thread yields empty list", func(t *testing.T) {
		srv := newTestServer(memory.New())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/history?threadId="+types.NewThreadID().String(), nil)
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.String(t, rec.Body.String()).Contains(`"uiMessages":[]`)
	})
}

func TestWorkflowEndpoint(t *testing.T) {
	t.Run("reviews the input document", func(t *testing.T) {
		srv := newTestServer(memory.New())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/workflow",
			strings.NewReader(`{"input":"my draft chapter"}`))
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Output string `json:"output"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.Output).Equal("The draft reads well overall.")
	})

	t.Run("empty input is a bad request", func(t *testing.T) {
		srv := newTestServer(memory.New())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/workflow", strings.NewReader(`{"input":""}`))
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}
