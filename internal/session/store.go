// Package session persists per-visitor chat history for the graph server.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/flowgraph/internal/chat"
	"github.com/ziadkadry99/flowgraph/internal/db"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Store manages chat sessions and their history.
type Store struct {
	db *db.DB
}

// NewStore creates a new session store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create starts a new session seeded with the welcome message and returns its id.
func (s *Store) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.seed(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// Ensure returns id when it names an existing session, otherwise it creates
// a fresh one. Unparseable ids are never stored.
func (s *Store) Ensure(ctx context.Context, id string) (string, error) {
	if _, err := uuid.Parse(id); err == nil {
		exists, err := s.exists(ctx, id)
		if err != nil {
			return "", err
		}
		if exists {
			return id, nil
		}
	}
	return s.Create(ctx)
}

// Exists reports whether id names a stored session.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	return s.exists(ctx, id)
}

// History returns the session's entries in insertion order.
func (s *Store) History(ctx context.Context, id string) ([]chat.Entry, error) {
	exists, err := s.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, content FROM chat_messages WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	entries := []chat.Entry{}
	for rows.Next() {
		var e chat.Entry
		if err := rows.Scan(&e.Type, &e.Content); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Append adds entries to the end of the session's history atomically.
func (s *Store) Append(ctx context.Context, id string, entries ...chat.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (session_id, type, content) VALUES (?, ?, ?)`,
			id, string(e.Type), e.Content,
		); err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}
	return tx.Commit()
}

// Reset drops the session's history and reseeds the welcome message. An
// unknown id is created on the fly.
func (s *Store) Reset(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("deleting messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return s.seed(ctx, id)
}

// Count returns the number of stored sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

// Prune deletes sessions not touched since cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	cutoff = cutoff.UTC()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE session_id IN (SELECT id FROM chat_sessions WHERE updated_at < ?)`, cutoff,
	); err != nil {
		return 0, fmt.Errorf("pruning messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

func (s *Store) seed(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, created_at, updated_at) VALUES (?, ?, ?)`, id, now, now,
	); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, type, content) VALUES (?, ?, ?)`,
		id, string(chat.RoleAssistant), chat.WelcomeMessage,
	); err != nil {
		return fmt.Errorf("seeding welcome message: %w", err)
	}
	return tx.Commit()
}

func (s *Store) exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM chat_sessions WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up session: %w", err)
	}
	return true, nil
}
