package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
	"gridcast/pkg/circuitbreaker"
	"gridcast/pkg/retry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSessionRepository stores the whole session as one JSON document under
// a namespaced key. Saves retry with backoff behind a circuit breaker, so a
// dead Redis degrades to fast-failing persistence instead of stalling every
// mutation. Loads treat any corruption as an empty session so a bad payload
// can never wedge startup.
type RedisSessionRepository struct {
	client    *redis.Client
	key       string
	retryConf retry.Config
	breaker   *circuitbreaker.CircuitBreaker
	logger    *zap.SugaredLogger
}

func NewRedisSessionRepository(client *redis.Client, namespace string, logger *zap.SugaredLogger) ports.SessionRepository {
	r := &RedisSessionRepository{
		client:    client,
		key:       namespace + ":session",
		retryConf: retry.DefaultConfig(),
		breaker:   circuitbreaker.New(circuitbreaker.DefaultConfig()),
		logger:    logger,
	}
	if logger != nil {
		r.breaker.OnStateChange(func(from, to circuitbreaker.State) {
			logger.Warnw("session persistence circuit state changed",
				"from", from.String(),
				"to", to.String(),
			)
		})
	}
	return r
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = r.breaker.Execute(ctx, func() error {
		return retry.Do(ctx, r.retryConf, func() error {
			return r.client.Set(ctx, r.key, data, 0).Err()
		})
	})
	if err != nil {
		return fmt.Errorf("failed to set session in Redis: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return domain.NewSession(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		if r.logger != nil {
			r.logger.Warnw("discarding corrupt persisted session", "error", err)
		}
		return domain.NewSession(), nil
	}

	if session.States == nil {
		session.States = make(map[domain.StreamID]*domain.StreamState)
	}
	if !session.LayoutMode.Valid() {
		if r.logger != nil {
			r.logger.Warnw("discarding persisted session with unknown layout mode",
				"layout_mode", session.LayoutMode,
			)
		}
		return domain.NewSession(), nil
	}

	return &session, nil
}

func (r *RedisSessionRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}
