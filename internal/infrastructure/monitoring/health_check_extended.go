package monitoring

import (
	"context"
	"time"

	"gridcast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// AddRedisCheck adds a Redis health check
func (h *HealthChecker) AddRedisCheck(client *redis.Client, timeout time.Duration) {
	h.AddCheck("redis", func(ctx context.Context) (bool, error) {
		if err := client.Ping(ctx).Err(); err != nil {
			return false, err
		}
		return true, nil
	}, timeout)
}

// AddSegmentStoreCheck verifies the segment repository responds to listing.
func (h *HealthChecker) AddSegmentStoreCheck(repo ports.SegmentRepository, timeout time.Duration) {
	h.AddCheck("segment_store", func(ctx context.Context) (bool, error) {
		if _, err := repo.List(ctx); err != nil {
			return false, err
		}
		return true, nil
	}, timeout)
}

// AddStorageQuotaCheck fails when recording storage is exhausted.
func (h *HealthChecker) AddStorageQuotaCheck(quota ports.StorageQuota, timeout time.Duration) {
	h.AddCheck("storage_quota", func(ctx context.Context) (bool, error) {
		available, err := quota.Available(ctx)
		if err != nil {
			return false, err
		}
		return available > 0, nil
	}, timeout)
}
