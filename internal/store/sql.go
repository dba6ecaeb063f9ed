package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eldtechnologies/omnidesk/internal/crypto"
	"github.com/eldtechnologies/omnidesk/internal/metrics"
	"github.com/eldtechnologies/omnidesk/internal/models"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// SQLStore handles database/sql operations for SQLite and PostgreSQL.
// Queries are written with ? placeholders and rebound per dialect.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

var _ DataStore = (*SQLStore)(nil)

// schema is portable between SQLite and PostgreSQL. Times are unix ms and
// booleans are 0/1 integers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'agent',
		password_hash TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		platform TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		handle TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		automation INTEGER NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (platform, customer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		body TEXT NOT NULL,
		direction TEXT NOT NULL,
		ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(platform, customer_id, ts)`,
	`CREATE TABLE IF NOT EXISTS channels (
		platform TEXT PRIMARY KEY,
		account_id TEXT NOT NULL DEFAULT '',
		account_name TEXT NOT NULL DEFAULT '',
		connected INTEGER NOT NULL DEFAULT 0,
		auto_reply INTEGER NOT NULL DEFAULT 0
	)`,
}

func newSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLStore) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	defer func() { metrics.SQLLatency.Observe(time.Since(start).Seconds()) }()
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	defer func() { metrics.SQLLatency.Observe(time.Since(start).Seconds()) }()
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	defer func() { metrics.SQLLatency.Observe(time.Since(start).Seconds()) }()
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser creates a new user record.
func (s *SQLStore) CreateUser(ctx context.Context, email, name, role, passwordHash string) (*models.User, error) {
	id := crypto.NewUUIDv7()
	now := time.Now().UTC()

	_, err := s.exec(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id.String(), strings.ToLower(email), name, role, passwordHash, now.UnixMilli())
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanUser(s.queryRow(ctx, `
		SELECT id, email, name, role, password_hash, created_at
		FROM users WHERE id = ?
	`, id.String()))
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.queryRow(ctx, `
		SELECT id, email, name, role, password_hash, created_at
		FROM users WHERE email = ?
	`, strings.ToLower(email)))
}

func (s *SQLStore) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var idStr string
	var created int64
	err := row.Scan(&idStr, &user.Email, &user.Name, &user.Role, &user.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = time.UnixMilli(created).UTC()
	return user, nil
}

// UpsertConversation inserts conv or updates name, handle and active flag.
// Empty names and handles never overwrite stored ones.
func (s *SQLStore) UpsertConversation(ctx context.Context, conv *models.Conversation) error {
	created := conv.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.exec(ctx, `
		INSERT INTO conversations (platform, customer_id, name, handle, active, automation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (platform, customer_id) DO UPDATE SET
			name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE conversations.name END,
			handle = CASE WHEN excluded.handle <> '' THEN excluded.handle ELSE conversations.handle END,
			active = excluded.active
	`, conv.Platform, conv.CustomerID, conv.Name, conv.Handle, boolInt(conv.Active), boolInt(conv.Automation), created.UnixMilli())
	return err
}

// GetConversation returns nil, nil when the thread does not exist.
func (s *SQLStore) GetConversation(ctx context.Context, platform, customerID string) (*models.Conversation, error) {
	c := &models.Conversation{}
	var active, automation int
	var created int64
	err := s.queryRow(ctx, `
		SELECT platform, customer_id, name, handle, active, automation, created_at
		FROM conversations WHERE platform = ? AND customer_id = ?
	`, platform, customerID).Scan(&c.Platform, &c.CustomerID, &c.Name, &c.Handle, &active, &automation, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Active, c.Automation = active != 0, automation != 0
	c.CreatedAt = time.UnixMilli(created).UTC()
	return c, nil
}

// ListConversations returns platform's threads, most recent activity first.
// An empty platform lists every platform.
func (s *SQLStore) ListConversations(ctx context.Context, platform string) ([]models.ConversationSummary, error) {
	rows, err := s.query(ctx, `
		SELECT c.platform, c.customer_id, c.name, c.handle, c.active, c.automation, c.created_at,
			(SELECT COUNT(*) FROM messages mc WHERE mc.platform = c.platform AND mc.customer_id = c.customer_id),
			m.id, m.body, m.direction, m.ts
		FROM conversations c
		LEFT JOIN messages m ON m.id = (
			SELECT ml.id FROM messages ml
			WHERE ml.platform = c.platform AND ml.customer_id = c.customer_id
			ORDER BY ml.ts DESC, ml.id DESC LIMIT 1
		)
		WHERE (CAST(? AS TEXT) = '' OR c.platform = ?)
		ORDER BY COALESCE(m.ts, c.created_at) DESC
	`, platform, platform)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ConversationSummary
	for rows.Next() {
		var sum models.ConversationSummary
		var active, automation int
		var created int64
		var msgID, body, direction sql.NullString
		var ts sql.NullInt64
		if err := rows.Scan(
			&sum.Platform, &sum.CustomerID, &sum.Name, &sum.Handle, &active, &automation, &created,
			&sum.MessageCount, &msgID, &body, &direction, &ts,
		); err != nil {
			return nil, err
		}
		sum.Active, sum.Automation = active != 0, automation != 0
		sum.CreatedAt = time.UnixMilli(created).UTC()
		if msgID.Valid {
			sum.LastMessage = &models.Message{
				ID:         msgID.String,
				Platform:   sum.Platform,
				CustomerID: sum.CustomerID,
				Body:       body.String,
				Direction:  direction.String,
				Timestamp:  ts.Int64,
			}
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// SetAutomation switches the automation flag of a thread.
func (s *SQLStore) SetAutomation(ctx context.Context, platform, customerID string, enabled bool) error {
	res, err := s.exec(ctx, `
		UPDATE conversations SET automation = ? WHERE platform = ? AND customer_id = ?
	`, boolInt(enabled), platform, customerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMessage stores a message, assigning ID and timestamp when unset.
func (s *SQLStore) AddMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = crypto.NewMessageID()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	_, err := s.exec(ctx, `
		INSERT INTO messages (id, platform, customer_id, body, direction, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.Platform, msg.CustomerID, msg.Body, msg.Direction, msg.Timestamp)
	return err
}

// ListMessages returns up to limit most recent messages, oldest first.
func (s *SQLStore) ListMessages(ctx context.Context, platform, customerID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 1000
	}

	rows, err := s.query(ctx, `
		SELECT id, platform, customer_id, body, direction, ts
		FROM messages WHERE platform = ? AND customer_id = ?
		ORDER BY ts DESC, id DESC LIMIT ?
	`, platform, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Platform, &m.CustomerID, &m.Body, &m.Direction, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to oldest first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// GetChannel returns nil, nil for an unbound platform.
func (s *SQLStore) GetChannel(ctx context.Context, platform string) (*models.Channel, error) {
	ch := &models.Channel{}
	var connected, autoReply int
	err := s.queryRow(ctx, `
		SELECT platform, account_id, account_name, connected, auto_reply
		FROM channels WHERE platform = ?
	`, platform).Scan(&ch.Platform, &ch.AccountID, &ch.AccountName, &connected, &autoReply)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	ch.Connected, ch.AutoReply = connected != 0, autoReply != 0
	return ch, nil
}

// UpsertChannel binds or rebinds a platform account.
func (s *SQLStore) UpsertChannel(ctx context.Context, ch *models.Channel) error {
	_, err := s.exec(ctx, `
		INSERT INTO channels (platform, account_id, account_name, connected, auto_reply)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (platform) DO UPDATE SET
			account_id = excluded.account_id,
			account_name = excluded.account_name,
			connected = excluded.connected,
			auto_reply = excluded.auto_reply
	`, ch.Platform, ch.AccountID, ch.AccountName, boolInt(ch.Connected), boolInt(ch.AutoReply))
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
