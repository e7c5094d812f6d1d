package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/secmon-lab/docrev/pkg/domain/interfaces"
	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
)

type profileRepository struct {
	client *firestore.Client
}

var _ interfaces.ProfileRepository = &profileRepository{}

func newProfileRepository(client *firestore.Client) *profileRepository {
	return &profileRepository{client: client}
}

type profileDoc struct {
	ResourceID string    `firestore:"ResourceID"`
	Body       string    `firestore:"Body"`
	CreatedAt  time.Time `firestore:"CreatedAt"`
	UpdatedAt  time.Time `firestore:"UpdatedAt"`
}

// Get returns the working memory profile for a resource, or an
// empty profile if none has been written yet
func (r *profileRepository) Get(ctx context.Context, resourceID types.ResourceID) (*model.Profile, error) {
	snap, err := r.client.Collection(profilesCollection).Doc(string(resourceID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &model.Profile{ResourceID: resourceID}, nil
		}
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V("resourceID", resourceID))
	}

	var d profileDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal profile")
	}

	return &model.Profile{
		ResourceID: types.ResourceID(d.ResourceID),
		Body:       d.Body,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

func (r *profileRepository) Put(ctx context.Context, profile *model.Profile) error {
	now := time.Now().UTC()

	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	doc := &profileDoc{
		ResourceID: string(profile.ResourceID),
		Body:       profile.Body,
		CreatedAt:  createdAt,
		UpdatedAt:  now,
	}

	// Full-document overwrite: doc carries every field, and MergeAll
	// is rejected by the client for struct data
	if _, err := r.client.Collection(profilesCollection).Doc(doc.ResourceID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to store profile", goerr.V("resourceID", profile.ResourceID))
	}

	return nil
}
