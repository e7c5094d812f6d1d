package firestore_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
	"github.com/secmon-lab/docrev/pkg/repository/firestore"
)

func newFirestoreRepository(t *testing.T) *firestore.Client {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	repo, err := firestore.New(context.Background(), projectID, databaseID)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})

	return repo
}

func TestFirestoreProfile(t *testing.T) {
	repo := newFirestoreRepository(t)
	ctx := context.Background()

	resourceID := types.ResourceID("resource-test-" + uuid.NewString())

	t.Run("get before any write returns empty profile", func(t *testing.T) {
		profile, err := repo.Profile().Get(ctx, resourceID)
		gt.NoError(t, err).Required()
		gt.Value(t, profile.ResourceID).Equal(resourceID)
		gt.Bool(t, profile.Empty()).True()
	})

	t.Run("put stores the full document", func(t *testing.T) {
		gt.NoError(t, repo.Profile().Put(ctx, &model.Profile{
			ResourceID: resourceID,
			Body:       "# Reviewer\n\nPrefers terse feedback",
		})).Required()

		profile, err := repo.Profile().Get(ctx, resourceID)
		gt.NoError(t, err).Required()
		gt.Value(t, profile.Body).Equal("# Reviewer\n\nPrefers terse feedback")
		gt.Bool(t, profile.CreatedAt.IsZero()).False()
		gt.Bool(t, profile.UpdatedAt.IsZero()).False()
	})

	t.Run("rewrite keeps the original creation time", func(t *testing.T) {
		before, err := repo.Profile().Get(ctx, resourceID)
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Profile().Put(ctx, &model.Profile{
			ResourceID: resourceID,
			Body:       "# Reviewer\n\nReviewed chapter two",
			CreatedAt:  before.CreatedAt,
		})).Required()

		after, err := repo.Profile().Get(ctx, resourceID)
		gt.NoError(t, err).Required()
		gt.Value(t, after.Body).Equal("# Reviewer\n\nReviewed chapter two")
		gt.Value(t, after.CreatedAt.Unix()).Equal(before.CreatedAt.Unix())
	})
}
