package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hupe1980/supportmesh/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS chat_messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	agent      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL,
	tag        TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, id);
`

// SQLiteStore persists conversation history in a SQLite database. Message
// order is the autoincrement insert order, which matches append order
// because the database serializes writes.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary migrates) the database at dsn.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// SQLite handles one writer at a time; a larger pool just causes
	// SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureSession creates the session row if it does not exist.
func (s *SQLiteStore) EnsureSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chat_sessions (id, created_at) VALUES (?, ?)`,
		sessionID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ensure session %s: %w", sessionID, err)
	}
	return nil
}

// AppendMessage appends one message to the session log.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, msg core.Message) error {
	if err := s.EnsureSession(ctx, sessionID); err != nil {
		return err
	}
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, role, agent, content, tag, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, string(msg.Role), msg.Agent, msg.Content, msg.Tag, createdAt,
	)
	if err != nil {
		return fmt.Errorf("append message to session %s: %w", sessionID, err)
	}
	return nil
}

// History returns up to limit most recent messages in log order.
func (s *SQLiteStore) History(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	query := `SELECT role, agent, content, tag, created_at FROM chat_messages WHERE session_id = ? ORDER BY id ASC`
	args := []any{sessionID}
	if limit > 0 {
		query = `SELECT role, agent, content, tag, created_at FROM (
			SELECT id, role, agent, content, tag, created_at FROM chat_messages
			WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load history for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []core.Message
	for rows.Next() {
		var (
			msg  core.Message
			role string
		)
		if err := rows.Scan(&role, &msg.Agent, &msg.Content, &msg.Tag, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message for session %s: %w", sessionID, err)
		}
		msg.Role = core.Role(role)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history for session %s: %w", sessionID, err)
	}
	return out, nil
}

// DeleteSession removes the session row and its messages.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	if affected == 0 {
		return core.ErrSessionNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete messages for session %s: %w", sessionID, err)
	}
	return tx.Commit()
}
