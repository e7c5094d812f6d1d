package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docrev/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = goerr.New("not found")

const (
	threadsCollection  = "threads"
	messagesCollection = "messages"
	profilesCollection = "profiles"
)

// Client is the Firestore-backed repository
type Client struct {
	client  *firestore.Client
	thread  *threadRepository
	message *messageRepository
	profile *profileRepository
}

var _ interfaces.Repository = &Client{}

// New creates a Firestore repository for the given project/database
func New(ctx context.Context, projectID, databaseID string) (*Client, error) {
	var client *firestore.Client
	var err error

	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	return &Client{
		client:  client,
		thread:  newThreadRepository(client),
		message: newMessageRepository(client),
		profile: newProfileRepository(client),
	}, nil
}

func (c *Client) Thread() interfaces.ThreadRepository {
	return c.thread
}

func (c *Client) Message() interfaces.MessageRepository {
	return c.message
}

func (c *Client) Profile() interfaces.ProfileRepository {
	return c.profile
}

func (c *Client) Close() error {
	return c.client.Close()
}
