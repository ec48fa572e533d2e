package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fretemais/driver-directory/internal/core/domain"
)

const defaultClaimTTL = 10 * time.Second

// releaseScript deletes a claim only while it is still held by the caller, so
// an expired claim re-acquired by another writer is never released by mistake.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ClaimGuard reserves unique driver values in Redis for the duration of a write.
// Key format: claim:driver:<field>:<value>
type ClaimGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClaimGuard wraps client. A non-positive ttl falls back to ten seconds.
func NewClaimGuard(client *redis.Client, ttl time.Duration) *ClaimGuard {
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &ClaimGuard{client: client, ttl: ttl}
}

// Claim sets the key only if absent. The TTL bounds how long a crashed writer
// can block the value.
func (g *ClaimGuard) Claim(ctx context.Context, field domain.UniqueField, value, owner string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(field, value), owner, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", field, err)
	}
	return ok, nil
}

// Release drops the claim if owner still holds it.
func (g *ClaimGuard) Release(ctx context.Context, field domain.UniqueField, value, owner string) error {
	if err := releaseScript.Run(ctx, g.client, []string{g.key(field, value)}, owner).Err(); err != nil {
		return fmt.Errorf("release %s: %w", field, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (g *ClaimGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

func (g *ClaimGuard) key(field domain.UniqueField, value string) string {
	return fmt.Sprintf("claim:driver:%s:%s", field, value)
}
