package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
	"github.com/secmon-lab/docrev/pkg/service/recall"
	"github.com/secmon-lab/docrev/pkg/utils/async"
	"github.com/secmon-lab/docrev/pkg/utils/logging"
)

//go:embed prompt/review_system.md
var reviewSystemPromptTmpl string

//go:embed prompt/profile_update.md
var profileUpdatePromptTmpl string

var (
	reviewSystemPrompt  = template.Must(template.New("review_system").Parse(reviewSystemPromptTmpl))
	profileUpdatePrompt = template.Must(template.New("profile_update").Parse(profileUpdatePromptTmpl))
)

const threadTitleMaxLen = 80

// ChatRequest is the inbound chat payload
type ChatRequest struct {
	Messages   []model.Message  `json:"messages"`
	Model      string           `json:"model"`
	WebSearch  bool             `json:"webSearch"`
	ResourceID types.ResourceID `json:"resourceId,omitempty"`
	ThreadID   types.ThreadID   `json:"threadId,omitempty"`
}

// EventSink receives the ordered stream events of a turn. A sink
// error means the client is gone; the turn's persistence still
// completes.
type EventSink func(event model.StreamEvent) error

// ChatUseCase runs one conversational review turn
type ChatUseCase struct {
	uc *UseCases
}

func newChatUseCase(uc *UseCases) *ChatUseCase {
	return &ChatUseCase{uc: uc}
}

// Chat normalizes the request, resolves the conversation identity,
// loads memory context, streams the agent response to the sink, and
// persists the turn. Structural input errors reject the request
// before any model call; memory failures degrade without blocking.
func (c *ChatUseCase) Chat(ctx context.Context, req *ChatRequest, sink EventSink) error {
	logger := logging.From(ctx)

	if len(req.Messages) == 0 {
		return goerr.New("request contains no messages", goerr.T(types.ErrTagNormalization))
	}

	normalized, err := c.uc.normalizer.Normalize(ctx, req.Messages)
	if err != nil {
		return goerr.Wrap(err, "failed to normalize request messages")
	}

	identity := model.ResolveIdentity(req.ResourceID, req.ThreadID, c.uc.resourcePolicy, c.uc.now())
	if identity.HasThread() {
		// The stored thread owns the resource scope. A request that
		// names an existing thread with a different resourceId would
		// otherwise split the thread across two resources.
		thread, err := c.uc.repo.Thread().Get(ctx, identity.ThreadID)
		if err != nil {
			return goerr.Wrap(err, "failed to load thread",
				goerr.T(types.ErrTagMemoryRead),
				goerr.V("threadID", identity.ThreadID),
			)
		}
		if thread.ResourceID != identity.ResourceID {
			logger.Warn("request resource does not match thread, using stored resource",
				"threadID", identity.ThreadID,
				"requested", identity.ResourceID,
				"stored", thread.ResourceID,
			)
		}
		identity.ResourceID = thread.ResourceID
	} else {
		thread, err := c.uc.repo.Thread().Create(ctx, &model.Thread{
			ResourceID: identity.ResourceID,
			Title:      threadTitle(normalized),
		})
		if err != nil {
			return goerr.Wrap(err, "failed to create thread",
				goerr.T(types.ErrTagMemoryWrite),
				goerr.V("resourceID", identity.ResourceID),
			)
		}
		identity.ThreadID = thread.ID
	}

	query := lastUserText(normalized)
	memCtx := c.uc.recall.LoadContext(ctx, identity, query)

	systemPrompt, err := c.buildSystemPrompt(req.WebSearch, memCtx, normalized)
	if err != nil {
		return goerr.Wrap(err, "failed to build system prompt")
	}

	session, err := c.uc.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		emitError(ctx, sink, err)
		return goerr.Wrap(err, "failed to create model session", goerr.T(types.ErrTagUpstreamModel))
	}

	stream, err := session.GenerateStream(ctx, gollem.Text(renderConversation(normalized)))
	if err != nil {
		emitError(ctx, sink, err)
		return goerr.Wrap(err, "failed to start model stream",
			goerr.T(types.ErrTagUpstreamModel),
			goerr.V("model", req.Model),
		)
	}

	var reply strings.Builder
	clientGone := false
	for resp := range stream {
		if resp == nil {
			continue
		}
		for _, text := range resp.Texts {
			if text == "" {
				continue
			}
			reply.WriteString(text)
			if clientGone {
				continue
			}
			if err := sink(model.StreamEvent{Type: model.StreamEventTextDelta, Delta: text}); err != nil {
				// Keep consuming: partial output already streamed is
				// still persisted as valid context for the next turn
				logger.Warn("client disconnected mid-stream", "error", err.Error())
				clientGone = true
			}
		}
	}

	if !clientGone {
		if err := sink(model.StreamEvent{
			Type:       model.StreamEventFinish,
			ThreadID:   identity.ThreadID,
			ResourceID: identity.ResourceID,
		}); err != nil {
			logger.Warn("failed to deliver finish event", "error", err.Error())
		}
	}

	c.persistTurn(ctx, identity, normalized, reply.String(), memCtx)

	return nil
}

// persistTurn stores the turn's new messages and the revised
// working memory profile on a detached context. Write failures are
// logged only: the response has already streamed.
func (c *ChatUseCase) persistTurn(ctx context.Context, identity model.ConversationIdentity, normalized []model.Message, replyText string, memCtx *recall.Context) {
	newMessages := turnMessages(normalized)

	records := make([]*model.Record, 0, len(newMessages)+1)
	for _, msg := range newMessages {
		m := msg
		if m.ID == "" {
			m.ID = types.NewMessageID()
		}
		m.Metadata = &model.Metadata{ThreadID: identity.ThreadID, ResourceID: identity.ResourceID}
		records = append(records, &model.Record{Message: m})
	}
	if replyText != "" {
		records = append(records, &model.Record{
			Message: model.Message{
				ID:       types.NewMessageID(),
				Role:     types.RoleAssistant,
				Parts:    []model.Part{model.TextPart(replyText)},
				Metadata: &model.Metadata{ThreadID: identity.ThreadID, ResourceID: identity.ResourceID},
			},
		})
	}

	turnText := renderConversation(newMessages)
	if replyText != "" {
		turnText += "\n\n[assistant]\n" + replyText
	}
	currentProfile := memCtx.Profile

	async.Dispatch(ctx, func(ctx context.Context) error {
		profile := c.reviseProfile(ctx, identity, currentProfile, turnText)
		if err := c.uc.recall.Persist(ctx, identity, records, profile); err != nil {
			return goerr.Wrap(err, "failed to persist turn", goerr.V("threadID", identity.ThreadID))
		}
		return nil
	})
}

// reviseProfile asks the model to revise the working memory profile
// with the latest turn. Failure keeps the previous profile.
func (c *ChatUseCase) reviseProfile(ctx context.Context, identity model.ConversationIdentity, current *model.Profile, turnText string) *model.Profile {
	logger := logging.From(ctx)

	var buf bytes.Buffer
	if err := profileUpdatePrompt.Execute(&buf, map[string]string{
		"Profile": current.Body,
		"Turn":    turnText,
	}); err != nil {
		logger.Error("failed to render profile update prompt", "error", err.Error())
		return current
	}

	session, err := c.uc.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(profileResponseSchema()),
	)
	if err != nil {
		logger.Error("failed to create profile update session", "error", err.Error())
		return current
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buf.String()))
	if err != nil {
		logger.Error("failed to generate profile update", "error", err.Error())
		return current
	}
	if len(resp.Texts) == 0 {
		return current
	}

	var parsed struct {
		Profile string `json:"profile"`
	}
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		logger.Error("failed to parse profile update response", "error", err.Error())
		return current
	}
	if parsed.Profile == "" {
		return current
	}

	return &model.Profile{
		ResourceID: identity.ResourceID,
		Body:       parsed.Profile,
		CreatedAt:  current.CreatedAt,
	}
}

func profileResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "ProfileUpdateResponse",
		Description: "Revised working memory profile for the reviewer",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"profile": {
				Type:        gollem.TypeString,
				Description: "The full revised profile document in Markdown",
				Required:    true,
			},
		},
	}
}

func (c *ChatUseCase) buildSystemPrompt(webSearch bool, memCtx *recall.Context, request []model.Message) (string, error) {
	// The request already carries the visible conversation; only
	// inject stored context the client does not have.
	requestIDs := make(map[types.MessageID]bool, len(request))
	for _, m := range request {
		if m.ID != "" {
			requestIDs[m.ID] = true
		}
	}

	var recallParts []*model.Record
	for _, r := range memCtx.Recent {
		if !requestIDs[r.Message.ID] {
			recallParts = append(recallParts, r)
		}
	}
	recallParts = append(recallParts, memCtx.Semantic...)

	var buf bytes.Buffer
	err := reviewSystemPrompt.Execute(&buf, map[string]any{
		"WebSearch": webSearch,
		"Profile":   memCtx.Profile.Body,
		"Recall":    renderRecords(recallParts),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render system prompt template")
	}

	return buf.String(), nil
}

// turnMessages returns the messages added since the previous
// assistant reply: the new user turn. On a fresh thread that is the
// whole request.
func turnMessages(messages []model.Message) []model.Message {
	lastAssistant := -1
	for i, m := range messages {
		if m.Role == types.RoleAssistant {
			lastAssistant = i
		}
	}
	return messages[lastAssistant+1:]
}

func lastUserText(messages []model.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser {
			return messages[i].Text()
		}
	}
	return ""
}

func threadTitle(messages []model.Message) string {
	title := lastUserText(messages)
	title = strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(title)
	if len(runes) > threadTitleMaxLen {
		title = string(runes[:threadTitleMaxLen])
	}
	if title == "" {
		title = "New review"
	}
	return title
}

// renderConversation flattens normalized messages into a role-tagged
// transcript. Image parts stay as Markdown references so their
// position in the reading order is preserved.
func renderConversation(messages []model.Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[" + msg.Role.String() + "]\n")
		for i, part := range msg.Parts {
			if i > 0 {
				sb.WriteString("\n")
			}
			switch part.Kind {
			case types.PartKindText:
				sb.WriteString(part.Text)
			case types.PartKindImage:
				sb.WriteString("![image](" + part.URL + ")")
			}
		}
	}
	return sb.String()
}

func renderRecords(records []*model.Record) string {
	if len(records) == 0 {
		return ""
	}
	messages := make([]model.Message, 0, len(records))
	for _, r := range records {
		messages = append(messages, r.Message)
	}
	return renderConversation(messages)
}

func emitError(ctx context.Context, sink EventSink, err error) {
	if sink == nil {
		return
	}
	if sinkErr := sink(model.StreamEvent{
		Type:  model.StreamEventError,
		Error: err.Error(),
	}); sinkErr != nil {
		logging.From(ctx).Warn("failed to deliver error event", "error", sinkErr.Error())
	}
}
