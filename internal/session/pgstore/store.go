// Package pgstore persists the session record in PostgreSQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by the store.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Store keeps token and user as two rows of portal_session_kv.
type Store struct {
	db DB
}

// NewStore creates a new PostgreSQL session store.
func NewStore(db DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("postgres store: db is required")
	}
	return &Store{db: db}, nil
}

// Load reads both rows. A missing row is an empty field.
func (s *Store) Load(ctx context.Context) (session.Record, error) {
	query := `
		SELECT key, value
		FROM portal_session_kv
		WHERE key IN ($1, $2)
	`
	rows, err := s.db.Query(ctx, query, session.KeyToken, session.KeyUser)
	if err != nil {
		return session.Record{}, fmt.Errorf("load session: %w", err)
	}
	defer rows.Close()

	var rec session.Record
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return session.Record{}, fmt.Errorf("scan session row: %w", err)
		}
		switch key {
		case session.KeyToken:
			rec.Token = value
		case session.KeyUser:
			rec.User = value
		}
	}
	if err := rows.Err(); err != nil {
		return session.Record{}, fmt.Errorf("iterate session rows: %w", err)
	}
	return rec, nil
}

// Save upserts both rows in one transaction.
func (s *Store) Save(ctx context.Context, rec session.Record) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	query := `
		INSERT INTO portal_session_kv (key, value, updated_at)
		VALUES ($1, $2, now()), ($3, $4, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := tx.Exec(ctx, query,
		session.KeyToken, rec.Token,
		session.KeyUser, rec.User,
	); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("save session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Clear deletes both rows in one statement.
func (s *Store) Clear(ctx context.Context) error {
	query := `DELETE FROM portal_session_kv WHERE key IN ($1, $2)`
	if _, err := s.db.Exec(ctx, query, session.KeyToken, session.KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
