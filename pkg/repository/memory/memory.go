package memory

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docrev/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = goerr.New("not found")

// Memory is the in-memory repository backend for development and
// tests
type Memory struct {
	thread  *threadRepository
	message *messageRepository
	profile *profileRepository
}

var _ interfaces.Repository = &Memory{}

// New creates an empty in-memory repository
func New() *Memory {
	return &Memory{
		thread:  newThreadRepository(),
		message: newMessageRepository(),
		profile: newProfileRepository(),
	}
}

func (m *Memory) Thread() interfaces.ThreadRepository {
	return m.thread
}

func (m *Memory) Message() interfaces.MessageRepository {
	return m.message
}

func (m *Memory) Profile() interfaces.ProfileRepository {
	return m.profile
}

func (m *Memory) Close() error {
	return nil
}
