package usecase

import (
	"time"

	"github.com/m-mizutani/gollem"

	"github.com/secmon-lab/docrev/pkg/domain/interfaces"
	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/service/extract"
	"github.com/secmon-lab/docrev/pkg/service/normalize"
	"github.com/secmon-lab/docrev/pkg/service/recall"
)

// UseCases bundles the application use cases with their shared
// dependencies. No ambient globals: everything is injected here and
// passed to each request handler.
type UseCases struct {
	repo      interfaces.Repository
	llmClient gollem.LLMClient

	extractor  extract.Service
	normalizer normalize.Service
	recall     *recall.Service

	resourcePolicy model.ResourceIDPolicy
	now            func() time.Time

	Chat     *ChatUseCase
	Workflow *WorkflowUseCase
	History  *HistoryUseCase
}

type Option func(*UseCases)

// WithRecallPolicy overrides the memory retrieval policy knobs
func WithRecallPolicy(policy recall.Policy) Option {
	return func(uc *UseCases) {
		uc.recall = recall.New(uc.repo, uc.llmClient, policy)
	}
}

// WithResourceIDPolicy overrides how resource scope keys are derived
// for sessions that do not carry one
func WithResourceIDPolicy(policy model.ResourceIDPolicy) Option {
	return func(uc *UseCases) {
		uc.resourcePolicy = policy
	}
}

// WithClock overrides the wall clock (tests)
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

// New creates the use case bundle. llmClient may be nil only for
// use cases that never reach the model (history rehydration).
func New(repo interfaces.Repository, llmClient gollem.LLMClient, opts ...Option) *UseCases {
	extractor := extract.New()

	uc := &UseCases{
		repo:           repo,
		llmClient:      llmClient,
		extractor:      extractor,
		normalizer:     normalize.New(extractor),
		recall:         recall.New(repo, llmClient, recall.DefaultPolicy()),
		resourcePolicy: model.HourBucketPolicy,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Chat = newChatUseCase(uc)
	uc.Workflow = newWorkflowUseCase(uc)
	uc.History = newHistoryUseCase(uc)

	return uc
}
