package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps any Redis failure seen by the deny-list.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrEmptyTokenID is returned when a token id is blank.
var ErrEmptyTokenID = errors.New("empty token id")

const defaultPrefix = "revoked:"

// DenyList records revoked session token ids in Redis until the token would
// have expired on its own.
type DenyList struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewDenyList returns a [DenyList] keyed under prefix (default "revoked:").
func NewDenyList(client redis.UniversalClient, prefix string) *DenyList {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &DenyList{redis: client, prefix: prefix, now: time.Now}
}

// Revoke marks tokenID as revoked until expiresAt. A token that has already
// expired needs no entry and is skipped.
func (d *DenyList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return ErrEmptyTokenID
	}
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.redis.Set(ctx, d.key(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether tokenID has a live deny-list entry.
func (d *DenyList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, ErrEmptyTokenID
	}
	n, err := d.redis.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n == 1, nil
}

func (d *DenyList) key(tokenID string) string {
	return d.prefix + tokenID
}
