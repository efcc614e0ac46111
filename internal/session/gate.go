package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"roast-platform/pkg/utils"
)

// Gate enforces the one-live-call rule across instances. The in-process
// orchestrator already serializes one visitor's flow; the gate covers the
// same visitor hitting two instances.
type Gate interface {
	Acquire(ctx context.Context, visitorID string) (bool, error)
	Release(ctx context.Context, visitorID string) error
}

const (
	gateKeyPrefix  = "roast:active:"
	defaultGateTTL = 15 * time.Minute
)

// RedisGate caps each visitor at one live roast call. The TTL is a safety
// net for instances that die without releasing. The per-instance token
// keeps one instance from dropping a lease that expired and was re-acquired
// through another.
type RedisGate struct {
	rdb   *redis.Client
	ttl   time.Duration
	token string
}

func NewRedisGate(rdb *redis.Client, ttl time.Duration) *RedisGate {
	if ttl <= 0 {
		ttl = defaultGateTTL
	}
	return &RedisGate{rdb: rdb, ttl: ttl, token: uuid.NewString()}
}

func (g *RedisGate) Acquire(ctx context.Context, visitorID string) (bool, error) {
	return utils.AcquireLease(ctx, g.rdb, gateKeyPrefix+visitorID, g.token, g.ttl)
}

func (g *RedisGate) Release(ctx context.Context, visitorID string) error {
	return utils.ReleaseLease(ctx, g.rdb, gateKeyPrefix+visitorID, g.token)
}

// NopGate admits everything. Used when Redis is not configured.
type NopGate struct{}

func (NopGate) Acquire(ctx context.Context, visitorID string) (bool, error) { return true, nil }
func (NopGate) Release(ctx context.Context, visitorID string) error         { return nil }
