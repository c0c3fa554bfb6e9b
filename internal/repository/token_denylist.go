package repository

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const denylistPrefix = "session:revoked:"

// TokenDenylist records revoked session token ids in Redis until the token
// would have expired anyway.
type TokenDenylist struct {
	rdb *goredis.Client
}

// NewTokenDenylist connects to addr and pings it.
func NewTokenDenylist(ctx context.Context, addr string) (*TokenDenylist, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &TokenDenylist{rdb: rdb}, nil
}

func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := d.rdb.Set(ctx, denylistPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("TokenDenylist.Revoke: %w", err)
	}
	return nil
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("TokenDenylist.IsRevoked: %w", err)
	}
	return n > 0, nil
}

func (d *TokenDenylist) Close() error {
	return d.rdb.Close()
}
