package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyFmt = "support-finder:conversation:%d"

// Sessions tracks the live token of each conversation so it can be revoked
// before it expires.
type Sessions struct {
	rdb *redis.Client
}

// NewSessions returns nil when rdb is nil; a nil *Sessions accepts every
// validly signed token.
func NewSessions(rdb *redis.Client) *Sessions {
	if rdb == nil {
		return nil
	}
	return &Sessions{rdb: rdb}
}

func (s *Sessions) Set(ctx context.Context, chatID uint, token string, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	return s.rdb.Set(ctx, fmt.Sprintf(sessionKeyFmt, chatID), token, ttl).Err()
}

// Valid reports whether token is the live token for chatID.
func (s *Sessions) Valid(ctx context.Context, chatID uint, token string) (bool, error) {
	if s == nil {
		return true, nil
	}
	stored, err := s.rdb.Get(ctx, fmt.Sprintf(sessionKeyFmt, chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == token, nil
}

func (s *Sessions) Revoke(ctx context.Context, chatID uint) error {
	if s == nil {
		return nil
	}
	return s.rdb.Del(ctx, fmt.Sprintf(sessionKeyFmt, chatID)).Err()
}
