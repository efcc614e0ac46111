package utils

import (
	"context"
	"testing"
	"time"
)

func TestRedisConfig_Defaults(t *testing.T) {
	c := RedisConfig{}.withDefaults()
	if c.PoolSize != 20 {
		t.Fatalf("unexpected pool size: %d", c.PoolSize)
	}
}

func TestLeaseArgValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := AcquireLease(ctx, nil, "k", "tok", time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ReleaseLease(ctx, nil, "k", "tok"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
