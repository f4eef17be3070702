package cartsession

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bagsberry/internal/adapters/storage"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// ErrNotFound is returned when no session exists for a token.
var ErrNotFound = fmt.Errorf("cart session not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new cart session store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves a cart session by token.
// PRE: token is non-empty
// POST: Returns the session or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, token string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT token, account_id, payload, updated_at FROM cart_session WHERE token = ?", token)

	var sess Session
	var accountID sql.NullString
	var payload, updatedAt string
	err := row.Scan(&sess.Token, &accountID, &payload, &updatedAt)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	sess.AccountID = accountID.String
	sess.Payload = []byte(payload)
	sess.UpdatedAt, _ = time.Parse(dateLayout, updatedAt)
	return sess, nil
}

// Save persists a cart session.
// PRE: value.Token is non-empty
// POST: Session is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, value Session) error {
	var accountID interface{}
	if value.AccountID != "" {
		accountID = value.AccountID
	}
	if value.UpdatedAt.IsZero() {
		value.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_session (token, account_id, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(token) DO UPDATE SET
		   account_id=excluded.account_id, payload=excluded.payload, updated_at=excluded.updated_at`,
		value.Token, accountID, string(value.Payload), value.UpdatedAt.Format(dateLayout))
	return err
}

// Delete removes a cart session.
// PRE: token is non-empty
// POST: Session removed
func (s *SQLiteStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_session WHERE token = ?", token)
	return err
}

// DeleteStale removes sessions not touched since the cutoff.
// PRE: cutoff is in the past
// POST: Returns number of sessions removed
func (s *SQLiteStore) DeleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_session WHERE updated_at < ?", cutoff.Format(dateLayout))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
