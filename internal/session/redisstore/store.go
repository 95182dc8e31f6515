// Package redisstore persists the session record in a Redis hash.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the hash holding the session fields.
const DefaultKey = "portal:session"

// Store keeps token and user as two fields of one hash. Save and Clear run in
// MULTI/EXEC so other clients never observe a half-written pair.
type Store struct {
	client redis.UniversalClient
	key    string
}

// NewStore creates a store on client under key.
func NewStore(client redis.UniversalClient, key string) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis store: client is required")
	}
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}, nil
}

// Load reads both fields. Missing fields are returned as empty strings.
func (s *Store) Load(ctx context.Context) (session.Record, error) {
	vals, err := s.client.HMGet(ctx, s.key, session.KeyToken, session.KeyUser).Result()
	if err != nil {
		return session.Record{}, fmt.Errorf("load session hash: %w", err)
	}

	var rec session.Record
	if len(vals) == 2 {
		rec.Token, _ = vals[0].(string)
		rec.User, _ = vals[1].(string)
	}
	return rec, nil
}

// Save replaces the hash with the new pair.
func (s *Store) Save(ctx context.Context, rec session.Record) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key,
			session.KeyToken, rec.Token,
			session.KeyUser, rec.User,
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session hash: %w", err)
	}
	return nil
}

// Clear deletes the hash.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session hash: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
