package recall

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/secmon-lab/docrev/pkg/domain/interfaces"
	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
	"github.com/secmon-lab/docrev/pkg/utils/logging"
)

// Policy holds the retrieval knobs. Defaults follow the review
// agent configuration; lightweight agents typically use a recency
// window of 5 and no semantic recall.
type Policy struct {
	RecentMessages  int
	SemanticTopK    int
	NeighborsBefore int
	NeighborsAfter  int
}

// DefaultPolicy returns the review-agent retrieval policy
func DefaultPolicy() Policy {
	return Policy{
		RecentMessages:  20,
		SemanticTopK:    10,
		NeighborsBefore: 4,
		NeighborsAfter:  3,
	}
}

// Context is the memory context injected into a turn. All fields
// are valid (possibly empty) even when retrieval failed.
type Context struct {
	Recent   []*model.Record
	Semantic []*model.Record
	Profile  *model.Profile
}

// Service implements the memory retrieval policy: what prior
// conversation state is injected before a turn, and what is
// persisted after it.
type Service struct {
	repo      interfaces.Repository
	llmClient gollem.LLMClient
	policy    Policy
}

// New creates a recall service. llmClient may be nil, which
// disables semantic recall (recency and profile still work).
func New(repo interfaces.Repository, llmClient gollem.LLMClient, policy Policy) *Service {
	if policy.RecentMessages <= 0 {
		policy.RecentMessages = DefaultPolicy().RecentMessages
	}
	return &Service{
		repo:      repo,
		llmClient: llmClient,
		policy:    policy,
	}
}

// LoadContext assembles the memory context for a turn. Retrieval
// failures degrade to an empty context instead of blocking the
// turn: a review with no memory is preferable to no review.
func (s *Service) LoadContext(ctx context.Context, identity model.ConversationIdentity, query string) *Context {
	logger := logging.From(ctx)
	result := &Context{
		Profile: &model.Profile{ResourceID: identity.ResourceID},
	}

	if identity.HasThread() {
		recent, err := s.repo.Message().ListRecent(ctx, identity.ThreadID, s.policy.RecentMessages)
		if err != nil {
			logger.Error("failed to load recent messages, continuing without them",
				"threadID", identity.ThreadID,
				"error", goerr.Wrap(err, "memory read failed", goerr.T(types.ErrTagMemoryRead)).Error(),
			)
		} else {
			result.Recent = recent
		}
	}

	if s.llmClient != nil && s.policy.SemanticTopK > 0 && query != "" {
		matches, err := s.semanticRecall(ctx, identity, query, result.Recent)
		if err != nil {
			logger.Error("semantic recall failed, continuing without it",
				"resourceID", identity.ResourceID,
				"error", err.Error(),
			)
		} else {
			result.Semantic = matches
		}
	}

	profile, err := s.repo.Profile().Get(ctx, identity.ResourceID)
	if err != nil {
		logger.Error("failed to load working memory profile, continuing with empty profile",
			"resourceID", identity.ResourceID,
			"error", goerr.Wrap(err, "memory read failed", goerr.T(types.ErrTagMemoryRead)).Error(),
		)
	} else if profile != nil {
		result.Profile = profile
	}

	return result
}

// semanticRecall finds the top-K most similar historical messages
// across the whole resource (cross-thread, intentionally: review
// history from earlier threads informs later reviews), expanding
// each hit with its neighboring messages for local context.
func (s *Service) semanticRecall(ctx context.Context, identity model.ConversationIdentity, query string, recent []*model.Record) ([]*model.Record, error) {
	embedding, err := s.generateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.repo.Message().FindByEmbedding(ctx, identity.ResourceID, embedding, s.policy.SemanticTopK)
	if err != nil {
		return nil, goerr.Wrap(err, "vector search failed",
			goerr.T(types.ErrTagMemoryRead),
			goerr.V("resourceID", identity.ResourceID),
		)
	}

	seen := make(map[string]bool, len(recent))
	for _, r := range recent {
		seen[recordKey(r)] = true
	}

	var expanded []*model.Record
	for _, hit := range hits {
		neighbors, err := s.repo.Message().Neighbors(ctx, hit.ThreadID, hit.Seq, s.policy.NeighborsBefore, s.policy.NeighborsAfter)
		if err != nil {
			logging.From(ctx).Warn("failed to expand semantic match, using the match alone",
				"threadID", hit.ThreadID,
				"seq", hit.Seq,
				"error", err.Error(),
			)
			neighbors = []*model.Record{hit}
		}
		for _, n := range neighbors {
			key := recordKey(n)
			if seen[key] {
				continue
			}
			seen[key] = true
			expanded = append(expanded, n)
		}
	}

	return expanded, nil
}

// Persist appends the turn's messages (with embeddings for semantic
// recall) and writes the revised profile. Errors carry the memory
// write tag; the caller logs them without failing the user-visible
// turn, which has already streamed.
func (s *Service) Persist(ctx context.Context, identity model.ConversationIdentity, records []*model.Record, profile *model.Profile) error {
	for _, r := range records {
		r.ThreadID = identity.ThreadID
		r.ResourceID = identity.ResourceID

		if len(r.Embedding) > 0 || s.llmClient == nil {
			continue
		}
		text := r.Text()
		if text == "" {
			continue
		}
		embedding, err := s.generateEmbedding(ctx, text)
		if err != nil {
			// Messages without embeddings are still retrievable by recency
			logging.From(ctx).Warn("failed to embed message, storing without embedding",
				"messageID", r.Message.ID,
				"error", err.Error(),
			)
			continue
		}
		r.Embedding = embedding
	}

	if err := s.repo.Message().Append(ctx, records); err != nil {
		return goerr.Wrap(err, "failed to persist turn messages",
			goerr.T(types.ErrTagMemoryWrite),
			goerr.V("threadID", identity.ThreadID),
		)
	}

	if profile != nil {
		if err := s.repo.Profile().Put(ctx, profile); err != nil {
			return goerr.Wrap(err, "failed to persist working memory profile",
				goerr.T(types.ErrTagMemoryWrite),
				goerr.V("resourceID", identity.ResourceID),
			)
		}
	}

	return nil
}

func (s *Service) generateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding", goerr.T(types.ErrTagMemoryRead))
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.New("embedding generation returned empty result")
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}
	return result, nil
}

func recordKey(r *model.Record) string {
	return string(r.ThreadID) + "#" + string(r.Message.ID)
}
