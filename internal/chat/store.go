package chat

import (
	"errors"

	"github.com/vatspratapsingh/yapper-chat-app/internal/models"
)

// ErrNotFound is what Store implementations return for a missing row.
var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator the realtime core depends on.
// internal/db satisfies it; tests plug in an in-memory fake.
type Store interface {
	GetUserByID(id string) (*models.User, error)
	SaveMessage(m *models.Message) error
	GetMessage(id string) (*models.Message, error)
	MarkMessageRead(id string) error
	FriendIDs(userID string) ([]string, error)
	// BlockedIDs returns users blocked by userID and users who blocked
	// userID, merged: either direction forbids interaction.
	BlockedIDs(userID string) ([]string, error)
	UpdateUserStatus(userID, status string) error
}
