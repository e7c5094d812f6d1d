package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/secmon-lab/docrev/pkg/domain/interfaces"
	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
)

type messageRepository struct {
	client *firestore.Client
}

var _ interfaces.MessageRepository = &messageRepository{}

func newMessageRepository(client *firestore.Client) *messageRepository {
	return &messageRepository{client: client}
}

type partDoc struct {
	Type      string         `firestore:"Type"`
	Text      string         `firestore:"Text,omitempty"`
	Filename  string         `firestore:"Filename,omitempty"`
	MediaType string         `firestore:"MediaType,omitempty"`
	URL       string         `firestore:"URL,omitempty"`
	Data      map[string]any `firestore:"Data,omitempty"`
}

// messageDoc is the stored form of a conversation record.
// Embedding is stored as firestore.Vector32 so that FindNearest
// vector search works.
type messageDoc struct {
	MessageID  string             `firestore:"MessageID"`
	ThreadID   string             `firestore:"ThreadID"`
	ResourceID string             `firestore:"ResourceID"`
	Role       string             `firestore:"Role"`
	Parts      []partDoc          `firestore:"Parts"`
	Seq        int64              `firestore:"Seq"`
	Embedding  firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt  time.Time          `firestore:"CreatedAt"`
}

func toMessageDoc(r *model.Record) *messageDoc {
	doc := &messageDoc{
		MessageID:  string(r.Message.ID),
		ThreadID:   string(r.ThreadID),
		ResourceID: string(r.ResourceID),
		Role:       string(r.Message.Role),
		Seq:        r.Seq,
		CreatedAt:  r.CreatedAt,
	}

	for _, p := range r.Message.Parts {
		doc.Parts = append(doc.Parts, partDoc{
			Type:      string(p.Kind),
			Text:      p.Text,
			Filename:  p.Filename,
			MediaType: p.MediaType,
			URL:       p.URL,
			Data:      p.Data,
		})
	}

	if len(r.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(r.Embedding)
	}

	return doc
}

func fromMessageDoc(d *messageDoc) *model.Record {
	rec := &model.Record{
		Message: model.Message{
			ID:   types.MessageID(d.MessageID),
			Role: types.Role(d.Role),
		},
		ThreadID:   types.ThreadID(d.ThreadID),
		ResourceID: types.ResourceID(d.ResourceID),
		Seq:        d.Seq,
		CreatedAt:  d.CreatedAt,
	}

	rec.Message.Parts = make([]model.Part, 0, len(d.Parts))
	for _, p := range d.Parts {
		rec.Message.Parts = append(rec.Message.Parts, model.Part{
			Kind:      types.PartKind(p.Type),
			Text:      p.Text,
			Filename:  p.Filename,
			MediaType: p.MediaType,
			URL:       p.URL,
			Data:      p.Data,
		})
	}

	if len(d.Embedding) > 0 {
		rec.Embedding = []float32(d.Embedding)
	}

	return rec
}

func messageDocID(threadID types.ThreadID, seq int64) string {
	return fmt.Sprintf("%s-%08d", threadID, seq)
}

// Append stores records at the tail of the thread. The next
// sequence number is read non-transactionally: the caller contract
// guarantees a single active writer per thread.
func (r *messageRepository) Append(ctx context.Context, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}

	threadID := records[0].ThreadID
	next, err := r.nextSeq(ctx, threadID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, rec := range records {
		rec.Seq = next
		rec.CreatedAt = now
		next++

		doc := toMessageDoc(rec)
		docID := messageDocID(rec.ThreadID, rec.Seq)
		if _, err := r.client.Collection(messagesCollection).Doc(docID).Set(ctx, doc); err != nil {
			return goerr.Wrap(err, "failed to store message",
				goerr.V("threadID", rec.ThreadID),
				goerr.V("seq", rec.Seq),
			)
		}
	}

	return nil
}

func (r *messageRepository) nextSeq(ctx context.Context, threadID types.ThreadID) (int64, error) {
	iter := r.client.Collection(messagesCollection).
		Where("ThreadID", "==", string(threadID)).
		OrderBy("Seq", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return 0, nil
	}
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read message sequence", goerr.V("threadID", threadID))
	}

	var d messageDoc
	if err := doc.DataTo(&d); err != nil {
		return 0, goerr.Wrap(err, "failed to unmarshal message")
	}

	return d.Seq + 1, nil
}

func (r *messageRepository) ListRecent(ctx context.Context, threadID types.ThreadID, n int) ([]*model.Record, error) {
	iter := r.client.Collection(messagesCollection).
		Where("ThreadID", "==", string(threadID)).
		OrderBy("Seq", firestore.Desc).
		Limit(n).
		Documents(ctx)
	defer iter.Stop()

	records, err := collectRecords(iter)
	if err != nil {
		return nil, err
	}

	// Query returned newest first, callers expect most-recent last
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return records, nil
}

func (r *messageRepository) ListByThread(ctx context.Context, threadID types.ThreadID) ([]*model.Record, error) {
	iter := r.client.Collection(messagesCollection).
		Where("ThreadID", "==", string(threadID)).
		OrderBy("Seq", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	return collectRecords(iter)
}

func (r *messageRepository) FindByEmbedding(ctx context.Context, resourceID types.ResourceID, embedding []float32, limit int) ([]*model.Record, error) {
	vq := r.client.Collection(messagesCollection).
		Where("ResourceID", "==", string(resourceID)).
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine, nil)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	return collectRecords(iter)
}

func (r *messageRepository) Neighbors(ctx context.Context, threadID types.ThreadID, seq int64, before, after int) ([]*model.Record, error) {
	start := seq - int64(before)
	if start < 0 {
		start = 0
	}
	end := seq + int64(after)

	iter := r.client.Collection(messagesCollection).
		Where("ThreadID", "==", string(threadID)).
		Where("Seq", ">=", start).
		Where("Seq", "<=", end).
		OrderBy("Seq", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	return collectRecords(iter)
}

func collectRecords(iter *firestore.DocumentIterator) ([]*model.Record, error) {
	records := make([]*model.Record, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages")
		}

		var d messageDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal message")
		}

		records = append(records, fromMessageDoc(&d))
	}

	return records, nil
}
