package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/eldtechnologies/omnidesk/internal/models"
)

var (
	// ErrNotFound is returned when an update targets a missing row.
	ErrNotFound = errors.New("store: not found")

	// ErrTokenNotFound is returned for unknown or expired tokens.
	ErrTokenNotFound = errors.New("store: token not found")
)

// DataStore defines the interface for persistent storage of users,
// conversations, messages and channel accounts.
// MemoryStore and SQLStore implement this interface.
type DataStore interface {
	// Connection management
	Close() error
	Ping(ctx context.Context) error

	// User operations. Lookups return nil, nil when the user does not exist.
	CreateUser(ctx context.Context, email, name, role, passwordHash string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Conversation operations
	UpsertConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, platform, customerID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, platform string) ([]models.ConversationSummary, error)
	SetAutomation(ctx context.Context, platform, customerID string, enabled bool) error

	// Message operations. Messages are returned oldest first.
	AddMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, platform, customerID string, limit int) ([]models.Message, error)

	// Channel account operations
	GetChannel(ctx context.Context, platform string) (*models.Channel, error)
	UpsertChannel(ctx context.Context, ch *models.Channel) error
}

// TokenStore maps opaque bearer tokens to user ids.
// MemoryTokenStore and RedisStore implement this interface.
type TokenStore interface {
	SaveToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	ResolveToken(ctx context.Context, token string) (uuid.UUID, error)
	RevokeToken(ctx context.Context, token string) error
}
