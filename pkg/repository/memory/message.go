package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
)

type messageRepository struct {
	mu      sync.RWMutex
	records map[types.ThreadID][]*model.Record
}

func newMessageRepository() *messageRepository {
	return &messageRepository{
		records: make(map[types.ThreadID][]*model.Record),
	}
}

func copyRecord(r *model.Record) *model.Record {
	copied := *r

	if r.Message.Parts != nil {
		copied.Message.Parts = make([]model.Part, len(r.Message.Parts))
		copy(copied.Message.Parts, r.Message.Parts)
	}
	if r.Message.Metadata != nil {
		meta := *r.Message.Metadata
		copied.Message.Metadata = &meta
	}
	if r.Embedding != nil {
		copied.Embedding = make([]float32, len(r.Embedding))
		copy(copied.Embedding, r.Embedding)
	}

	return &copied
}

func (r *messageRepository) Append(ctx context.Context, records []*model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, rec := range records {
		stored := copyRecord(rec)
		stored.Seq = int64(len(r.records[stored.ThreadID]))
		stored.CreatedAt = now

		r.records[stored.ThreadID] = append(r.records[stored.ThreadID], stored)
	}

	return nil
}

func (r *messageRepository) ListRecent(ctx context.Context, threadID types.ThreadID, n int) ([]*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.records[threadID]
	start := len(bucket) - n
	if start < 0 {
		start = 0
	}

	result := make([]*model.Record, 0, len(bucket)-start)
	for _, rec := range bucket[start:] {
		result = append(result, copyRecord(rec))
	}

	return result, nil
}

func (r *messageRepository) ListByThread(ctx context.Context, threadID types.ThreadID) ([]*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.records[threadID]
	result := make([]*model.Record, 0, len(bucket))
	for _, rec := range bucket {
		result = append(result, copyRecord(rec))
	}

	return result, nil
}

func (r *messageRepository) FindByEmbedding(ctx context.Context, resourceID types.ResourceID, embedding []float32, limit int) ([]*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		record *model.Record
		score  float64
	}

	var candidates []scored
	for _, bucket := range r.records {
		for _, rec := range bucket {
			if rec.ResourceID != resourceID || len(rec.Embedding) == 0 {
				continue
			}
			s := cosineSimilarity(embedding, rec.Embedding)
			candidates = append(candidates, scored{record: copyRecord(rec), score: s})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	result := make([]*model.Record, limit)
	for i := 0; i < limit; i++ {
		result[i] = candidates[i].record
	}

	return result, nil
}

func (r *messageRepository) Neighbors(ctx context.Context, threadID types.ThreadID, seq int64, before, after int) ([]*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.records[threadID]

	start := seq - int64(before)
	if start < 0 {
		start = 0
	}
	end := seq + int64(after)
	if end >= int64(len(bucket)) {
		end = int64(len(bucket)) - 1
	}

	var result []*model.Record
	for _, rec := range bucket {
		if rec.Seq >= start && rec.Seq <= end {
			result = append(result, copyRecord(rec))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})

	return result, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
