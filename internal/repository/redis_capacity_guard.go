package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/telemetry"
)

//go:embed lua/hold.lua
var holdScriptSrc string

//go:embed lua/release.lua
var releaseScriptSrc string

const (
	holdKeyPrefix = "capacity:held:"
	seqKeyPrefix  = "capacity:seq:"
)

// RedisCapacityGuard runs check-and-hold as a Lua script so the read
// and the increment execute atomically on the Redis server. go-redis
// Script.Run uses EVALSHA with an EVAL fallback on cache miss.
type RedisCapacityGuard struct {
	client        *redis.Client
	holdScript    *redis.Script
	releaseScript *redis.Script
}

func NewRedisCapacityGuard(client *redis.Client) *RedisCapacityGuard {
	return &RedisCapacityGuard{
		client:        client,
		holdScript:    redis.NewScript(holdScriptSrc),
		releaseScript: redis.NewScript(releaseScriptSrc),
	}
}

func (g *RedisCapacityGuard) Hold(ctx context.Context, resourceID string, units, capacity int) error {
	if units <= 0 {
		return fmt.Errorf("%w: units must be positive", domain.ErrValidation)
	}

	ctx, span := telemetry.StartSpan(ctx, "capacity_guard.hold",
		trace.WithAttributes(
			attribute.String("resource_id", resourceID),
			attribute.Int("units", units),
		))
	defer span.End()

	result, err := g.holdScript.Run(ctx, g.client,
		[]string{holdKeyPrefix + resourceID}, units, capacity).Int64()
	if err != nil {
		return fmt.Errorf("capacity hold script failed: %w", err)
	}
	if result < 0 {
		return fmt.Errorf("%w: resource %s", domain.ErrCapacityExceeded, resourceID)
	}
	return nil
}

func (g *RedisCapacityGuard) Release(ctx context.Context, resourceID string, units int) error {
	if units <= 0 {
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "capacity_guard.release",
		trace.WithAttributes(
			attribute.String("resource_id", resourceID),
			attribute.Int("units", units),
		))
	defer span.End()

	_, err := g.releaseScript.Run(ctx, g.client,
		[]string{holdKeyPrefix + resourceID}, units).Int64()
	if err != nil {
		return fmt.Errorf("capacity release script failed: %w", err)
	}
	return nil
}

func (g *RedisCapacityGuard) Held(ctx context.Context, resourceID string) (int, error) {
	held, err := g.client.Get(ctx, holdKeyPrefix+resourceID).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading capacity hold failed: %w", err)
	}
	return held, nil
}

func (g *RedisCapacityGuard) NextSequence(ctx context.Context, scope string) (int64, error) {
	seq, err := g.client.Incr(ctx, seqKeyPrefix+scope).Result()
	if err != nil {
		return 0, fmt.Errorf("sequence increment failed: %w", err)
	}
	return seq, nil
}
