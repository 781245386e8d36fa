// Package store implements domain.ConversationStore on SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lingochat/internal/domain"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists conversations and messages. IDs are UUIDs assigned on
// insert; created_at is set server-side in UTC.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// SQLite leaves declared foreign keys unenforced unless the pragma is on.
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		title       TEXT,
		language    TEXT NOT NULL DEFAULT 'en',
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id                   TEXT PRIMARY KEY,
		conversation_id      TEXT NOT NULL REFERENCES conversations(id),
		role                 TEXT NOT NULL,
		content              TEXT NOT NULL,
		detected_language    TEXT,
		original_content     TEXT,
		translation_metadata TEXT,
		attachment_url       TEXT,
		attachment_type      TEXT,
		status               TEXT NOT NULL DEFAULT 'sent',
		confidence_score     REAL,
		created_at           DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conv ON messages(conversation_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) InsertConversation(ctx context.Context, conv domain.Conversation) (*domain.Conversation, error) {
	now := time.Now().UTC()
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.Language == "" {
		conv.Language = domain.DefaultLanguage
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = conv.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, language, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.Title, string(conv.Language), conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return &conv, nil
}

func (s *SQLiteStore) Conversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, language, created_at, updated_at FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Language, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *SQLiteStore) Conversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, language, created_at, updated_at
		 FROM conversations WHERE user_id = ? ORDER BY updated_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Language, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

// TouchConversation bumps updated_at. The WHERE guard keeps updated_at
// monotonically non-decreasing under concurrent appends.
func (s *SQLiteStore) TouchConversation(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ? AND updated_at <= ?`,
		at.UTC(), id, at.UTC(),
	)
	return err
}

func (s *SQLiteStore) InsertMessage(ctx context.Context, msg domain.Message) (*domain.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Status == "" {
		msg.Status = domain.StatusSent
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	var metadata sql.NullString
	if msg.TranslationMetadata != nil {
		data, err := json.Marshal(msg.TranslationMetadata)
		if err != nil {
			return nil, fmt.Errorf("marshal translation metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	var confidence sql.NullFloat64
	if msg.ConfidenceScore != nil {
		confidence = sql.NullFloat64{Float64: *msg.ConfidenceScore, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, detected_language, original_content,
		                       translation_metadata, attachment_url, attachment_type, status, confidence_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, string(msg.DetectedLanguage), msg.OriginalContent,
		metadata, msg.AttachmentURL, msg.AttachmentType, string(msg.Status), confidence, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

func (s *SQLiteStore) Messages(ctx context.Context, convID string, order domain.SortOrder, limit int) ([]domain.Message, error) {
	dir := "ASC"
	if order == domain.Descending {
		dir = "DESC"
	}
	query := fmt.Sprintf(
		`SELECT id, conversation_id, role, content, detected_language, original_content,
		        translation_metadata, attachment_url, attachment_type, status, confidence_score, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY created_at %s`, dir)

	args := []any{convID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// UpdateMessageStatus applies sent → delivered or sent → error. The WHERE
// clause makes the forward-only guard atomic on the single connection.
func (s *SQLiteStore) UpdateMessageStatus(ctx context.Context, id string, status domain.MessageStatus) error {
	if status != domain.StatusDelivered && status != domain.StatusError {
		return domain.ErrInvalidTransition
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET status = ? WHERE id = ? AND status = ?`,
		string(status), id, string(domain.StatusSent),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 1 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM messages WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return domain.ErrInvalidTransition
}

// ListAwaitingReply returns the user messages appended after the last
// assistant message, in chronological order. An empty result means the
// conversation has no unanswered tail.
func (s *SQLiteStore) ListAwaitingReply(ctx context.Context, convID string) ([]domain.Message, error) {
	msgs, err := s.Messages(ctx, convID, domain.Ascending, 0)
	if err != nil {
		return nil, err
	}

	tail := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleAssistant {
			break
		}
		tail = i
	}
	if tail == len(msgs) {
		return nil, nil
	}
	return msgs[tail:], nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanMessage(rows *sql.Rows) (*domain.Message, error) {
	var m domain.Message
	var detected, original, metadata, attURL, attType sql.NullString
	var confidence sql.NullFloat64
	if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &detected, &original,
		&metadata, &attURL, &attType, &m.Status, &confidence, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.DetectedLanguage = domain.LanguageCode(detected.String)
	m.OriginalContent = original.String
	m.AttachmentURL = attURL.String
	m.AttachmentType = attType.String
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &m.TranslationMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal translation metadata: %w", err)
		}
	}
	if confidence.Valid {
		m.ConfidenceScore = &confidence.Float64
	}
	return &m, nil
}
