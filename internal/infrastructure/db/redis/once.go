package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultOnceTTL = 24 * time.Hour

// OnceGuard claims a key at most once within its TTL. It backs the
// at-most-once delivery of account events.
// Key format: once:<scope>:<id>
type OnceGuard struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewOnceGuard(client redis.Cmdable, ttl time.Duration) *OnceGuard {
	if ttl <= 0 {
		ttl = defaultOnceTTL
	}
	return &OnceGuard{client: client, ttl: ttl}
}

// Claim reports whether this call is the first to claim scope/id.
func (g *OnceGuard) Claim(ctx context.Context, scope, id string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(scope, id), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("once claim: %w", err)
	}
	return ok, nil
}

// Release drops a claim so a failed delivery can be attempted again.
func (g *OnceGuard) Release(ctx context.Context, scope, id string) error {
	if err := g.client.Del(ctx, g.key(scope, id)).Err(); err != nil {
		return fmt.Errorf("once release: %w", err)
	}
	return nil
}

func (g *OnceGuard) key(scope, id string) string {
	return fmt.Sprintf("once:%s:%s", scope, id)
}
