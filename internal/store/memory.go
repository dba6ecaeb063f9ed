package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eldtechnologies/omnidesk/internal/crypto"
	"github.com/eldtechnologies/omnidesk/internal/models"
)

type convKey struct {
	platform   string
	customerID string
}

// MemoryStore keeps everything in process memory. It backs tests and the
// server when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	convs    map[convKey]*models.Conversation
	order    []convKey
	messages map[convKey][]models.Message
	channels map[string]*models.Channel
}

var _ DataStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]*models.User),
		convs:    make(map[convKey]*models.Conversation),
		messages: make(map[convKey][]models.Message),
		channels: make(map[string]*models.Channel),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// CreateUser creates a new user record.
func (s *MemoryStore) CreateUser(ctx context.Context, email, name, role, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &models.User{
		ID:           crypto.NewUUIDv7(),
		Email:        strings.ToLower(email),
		Name:         name,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

// GetUserByID retrieves a user by ID.
func (s *MemoryStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// UpsertConversation inserts conv or updates name, handle and active flag.
func (s *MemoryStore) UpsertConversation(ctx context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := convKey{conv.Platform, conv.CustomerID}
	if existing, ok := s.convs[key]; ok {
		if conv.Name != "" {
			existing.Name = conv.Name
		}
		if conv.Handle != "" {
			existing.Handle = conv.Handle
		}
		existing.Active = conv.Active
		return nil
	}

	cp := *conv
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.convs[key] = &cp
	s.order = append(s.order, key)
	return nil
}

// GetConversation returns nil, nil when the thread does not exist.
func (s *MemoryStore) GetConversation(ctx context.Context, platform, customerID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.convs[convKey{platform, customerID}]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// ListConversations returns platform's threads, most recent activity first.
// An empty platform lists every platform.
func (s *MemoryStore) ListConversations(ctx context.Context, platform string) ([]models.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ConversationSummary
	for _, key := range s.order {
		if platform != "" && key.platform != platform {
			continue
		}
		sum := models.ConversationSummary{Conversation: *s.convs[key]}
		msgs := s.messages[key]
		sum.MessageCount = len(msgs)
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			sum.LastMessage = &last
		}
		out = append(out, sum)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lastActivity(out[i]) > lastActivity(out[j])
	})
	return out, nil
}

func lastActivity(s models.ConversationSummary) int64 {
	if s.LastMessage != nil {
		return s.LastMessage.Timestamp
	}
	return s.CreatedAt.UnixMilli()
}

// SetAutomation switches the automation flag of a thread.
func (s *MemoryStore) SetAutomation(ctx context.Context, platform, customerID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[convKey{platform, customerID}]
	if !ok {
		return ErrNotFound
	}
	c.Automation = enabled
	return nil
}

// AddMessage stores a message, assigning ID and timestamp when unset.
func (s *MemoryStore) AddMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = crypto.NewMessageID()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := convKey{msg.Platform, msg.CustomerID}
	msgs := append(s.messages[key], *msg)
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Timestamp < msgs[j].Timestamp })
	s.messages[key] = msgs
	return nil
}

// ListMessages returns up to limit most recent messages, oldest first.
func (s *MemoryStore) ListMessages(ctx context.Context, platform, customerID string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[convKey{platform, customerID}]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]models.Message(nil), msgs...), nil
}

// GetChannel returns nil, nil for an unbound platform.
func (s *MemoryStore) GetChannel(ctx context.Context, platform string) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[platform]
	if !ok {
		return nil, nil
	}
	cp := *ch
	return &cp, nil
}

// UpsertChannel binds or rebinds a platform account.
func (s *MemoryStore) UpsertChannel(ctx context.Context, ch *models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *ch
	s.channels[ch.Platform] = &cp
	return nil
}

// MemoryTokenStore keeps tokens in memory with expiry.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

type memoryToken struct {
	userID  uuid.UUID
	expires time.Time
}

var _ TokenStore = (*MemoryTokenStore)(nil)

// NewMemoryTokenStore creates an empty token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]memoryToken), now: time.Now}
}

// SaveToken stores token for ttl; zero ttl never expires.
func (s *MemoryTokenStore) SaveToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := memoryToken{userID: userID}
	if ttl > 0 {
		t.expires = s.now().Add(ttl)
	}
	s.tokens[token] = t
	return nil
}

// ResolveToken returns the token's user or ErrTokenNotFound.
func (s *MemoryTokenStore) ResolveToken(ctx context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, ErrTokenNotFound
	}
	if !t.expires.IsZero() && s.now().After(t.expires) {
		delete(s.tokens, token)
		return uuid.Nil, ErrTokenNotFound
	}
	return t.userID, nil
}

// RevokeToken deletes token.
func (s *MemoryTokenStore) RevokeToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
