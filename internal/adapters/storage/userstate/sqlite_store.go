package userstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"adventofgah/internal/adapters/storage"
	domain "adventofgah/internal/domain/session"
)

// StateKey is the client_state row holding the user blob.
const StateKey = "advent-of-gah-user"

// SQLiteStore implements Store using the client_state table.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new user state store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Load returns the persisted user state.
// PRE: client_state exists
// POST: a missing or undecodable blob yields the logged-out state and no error
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) Load(ctx context.Context) (domain.UserState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM client_state WHERE key = ?`, StateKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserState{}, nil
	}
	if err != nil {
		return domain.UserState{}, fmt.Errorf("load user state: %w", err)
	}

	var state domain.UserState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		slog.Warn("user_state_corrupt", "key", StateKey, "error", err)
		return domain.UserState{}, nil
	}
	return state, nil
}

// Save upserts the user state blob.
// PRE: none
// POST: the next Load returns state
func (s *SQLiteStore) Save(ctx context.Context, state domain.UserState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode user state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`, StateKey, string(blob), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save user state: %w", err)
	}
	return nil
}
