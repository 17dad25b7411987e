package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisSegmentRepository stores each recording segment as its own JSON value
// plus a set index for listing.
type RedisSegmentRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisSegmentRepository(client *redis.Client, namespace string) ports.SegmentRepository {
	return &RedisSegmentRepository{
		client: client,
		prefix: namespace + ":segment:",
	}
}

func (r *RedisSegmentRepository) segmentKey(id domain.SegmentID) string {
	return r.prefix + string(id)
}

func (r *RedisSegmentRepository) indexKey() string {
	return r.prefix + "index"
}

func (r *RedisSegmentRepository) Save(ctx context.Context, segment *domain.RecordingSegment) error {
	data, err := json.Marshal(segment)
	if err != nil {
		return fmt.Errorf("failed to marshal segment: %w", err)
	}

	if err := r.client.Set(ctx, r.segmentKey(segment.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set segment in Redis: %w", err)
	}
	if err := r.client.SAdd(ctx, r.indexKey(), string(segment.ID)).Err(); err != nil {
		return fmt.Errorf("failed to index segment: %w", err)
	}
	return nil
}

func (r *RedisSegmentRepository) GetByID(ctx context.Context, id domain.SegmentID) (*domain.RecordingSegment, error) {
	data, err := r.client.Get(ctx, r.segmentKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrSegmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get segment from Redis: %w", err)
	}

	var segment domain.RecordingSegment
	if err := json.Unmarshal([]byte(data), &segment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal segment: %w", err)
	}
	return &segment, nil
}

func (r *RedisSegmentRepository) List(ctx context.Context) ([]*domain.RecordingSegment, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list segments from Redis: %w", err)
	}

	segments := make([]*domain.RecordingSegment, 0, len(ids))
	for _, id := range ids {
		segment, err := r.GetByID(ctx, domain.SegmentID(id))
		if err != nil {
			// index entries without a value were deleted concurrently
			continue
		}
		segments = append(segments, segment)
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].StartTime.Before(segments[j].StartTime)
	})
	return segments, nil
}

func (r *RedisSegmentRepository) Delete(ctx context.Context, id domain.SegmentID) error {
	deleted, err := r.client.Del(ctx, r.segmentKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete segment from Redis: %w", err)
	}
	if deleted == 0 {
		return domain.ErrSegmentNotFound
	}
	if err := r.client.SRem(ctx, r.indexKey(), string(id)).Err(); err != nil {
		return fmt.Errorf("failed to unindex segment: %w", err)
	}
	return nil
}
