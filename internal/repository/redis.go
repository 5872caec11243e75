package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseLock deletes the lock only if it still carries our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis stores JSON encoded values under "<namespace>:<key>".
// Update serializes writers across processes with a lock key per record.
type Redis[E any] struct {
	client    redis.UniversalClient
	namespace string
	logger    zerolog.Logger
	newKey    func() string
	lockTTL   time.Duration
	lockRetry time.Duration
}

// NewRedis creates a Redis-backed repository scoped to namespace.
func NewRedis[E any](client redis.UniversalClient, namespace string, logger zerolog.Logger, opts ...Option) *Redis[E] {
	o := buildOptions(opts)
	return &Redis[E]{
		client:    client,
		namespace: namespace,
		logger:    logger.With().Str("repository", namespace).Logger(),
		newKey:    o.newKey,
		lockTTL:   o.lockTTL,
		lockRetry: o.lockRetry,
	}
}

func (r *Redis[E]) dataKey(key string) string {
	return fmt.Sprintf("%s:%s", r.namespace, key)
}

func (r *Redis[E]) lockKey(key string) string {
	return fmt.Sprintf("%s:%s:lock", r.namespace, key)
}

// Persist stores value. A fresh key is claimed with SETNX and panics if taken.
func (r *Redis[E]) Persist(ctx context.Context, value E, key string) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode value: %w", err)
	}

	if key == "" {
		key = r.newKey()
		ok, err := r.client.SetNX(ctx, r.dataKey(key), data, 0).Result()
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to insert value")
			return "", fmt.Errorf("failed to insert value: %w", err)
		}
		if !ok {
			panic(fmt.Sprintf("repository: generated key %q already present in %s", key, r.namespace))
		}
		return key, nil
	}

	if err := r.client.Set(ctx, r.dataKey(key), data, 0).Err(); err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("failed to store value")
		return "", fmt.Errorf("failed to store value: %w", err)
	}
	return key, nil
}

// Get returns the value stored under key.
func (r *Redis[E]) Get(ctx context.Context, key string) (E, error) {
	var value E

	data, err := r.client.Get(ctx, r.dataKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return value, ErrNotFound
		}
		r.logger.Error().Err(err).Str("key", key).Msg("failed to load value")
		return value, fmt.Errorf("failed to load value: %w", err)
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to decode value: %w", err)
	}
	return value, nil
}

// Update holds the record lock while fn runs. fn must finish within the lock TTL.
func (r *Redis[E]) Update(ctx context.Context, key string, fn func(context.Context, E) (E, error)) (E, error) {
	var zero E

	unlock, err := r.lock(ctx, key)
	if err != nil {
		return zero, err
	}
	defer unlock()

	current, err := r.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	updated, err := fn(ctx, current)
	if err != nil {
		return zero, err
	}

	if _, err := r.Persist(ctx, updated, key); err != nil {
		return zero, err
	}
	return updated, nil
}

func (r *Redis[E]) lock(ctx context.Context, key string) (func(), error) {
	lockKey := r.lockKey(key)
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, lockKey, token, r.lockTTL).Result()
		if err != nil {
			r.logger.Error().Err(err).Str("key", key).Msg("failed to acquire lock")
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(r.lockRetry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		releaseCtx := context.WithoutCancel(ctx)
		if err := releaseLock.Run(releaseCtx, r.client, []string{lockKey}, token).Err(); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}, nil
}
