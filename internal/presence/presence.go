package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const connTTL = 24 * time.Hour

// Store keeps online state and rate-limit counters in Redis so presence
// survives across server instances.
type Store struct {
	rdb    *redis.Client
	prefix string
}

func NewStore(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) connKey(userID string) string { return fmt.Sprintf("%s:conn:%s", s.prefix, userID) }
func (s *Store) rateKey(userID string) string { return fmt.Sprintf("%s:rate:%s", s.prefix, userID) }

// Connected bumps the user's live-connection count (multi-device).
func (s *Store) Connected(ctx context.Context, userID string) error {
	key := s.connKey(userID)
	if err := s.rdb.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, connTTL).Err()
}

// Disconnected drops the count; at zero the key is removed and the user
// reads as offline.
func (s *Store) Disconnected(ctx context.Context, userID string) error {
	n, err := s.rdb.Decr(ctx, s.connKey(userID)).Result()
	if err != nil {
		return err
	}
	if n <= 0 {
		return s.rdb.Del(ctx, s.connKey(userID)).Err()
	}
	return nil
}

func (s *Store) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := s.rdb.Get(ctx, s.connKey(userID)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Allow implements a fixed-window rate limit on message sends.
func (s *Store) Allow(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	key := s.rateKey(userID)
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		_ = s.rdb.Expire(ctx, key, window).Err()
	}
	return count <= int64(limit), nil
}
