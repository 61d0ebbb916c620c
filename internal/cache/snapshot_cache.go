package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"wisefido-rollcall/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SnapshotCache 位置/人员快照的 Redis 缓存
// 可选的性能优化，不影响正确性；不设 TTL，
// 底层数据变化时必须显式调用 Invalidate（避免 TTL 猜测导致行为不确定）
type SnapshotCache struct {
	redisClient *redis.Client
	keyPrefix   string
	logger      *zap.Logger
}

// NewSnapshotCache 创建快照缓存
func NewSnapshotCache(redisClient *redis.Client, keyPrefix string, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
		logger:      logger,
	}
}

func (c *SnapshotCache) locationsKey(tenantID string) string {
	return fmt.Sprintf("%s%s:locations", c.keyPrefix, tenantID)
}

func (c *SnapshotCache) occupantsKey(tenantID string) string {
	return fmt.Sprintf("%s%s:occupants", c.keyPrefix, tenantID)
}

// GetLocations 读取位置快照缓存（未命中返回 nil, nil）
func (c *SnapshotCache) GetLocations(ctx context.Context, tenantID string) ([]*domain.Location, error) {
	val, err := c.redisClient.Get(ctx, c.locationsKey(tenantID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get locations cache: %w", err)
	}

	var locations []*domain.Location
	if err := json.Unmarshal([]byte(val), &locations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal locations cache: %w", err)
	}
	return locations, nil
}

// SetLocations 写入位置快照缓存
func (c *SnapshotCache) SetLocations(ctx context.Context, tenantID string, locations []*domain.Location) error {
	data, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("failed to marshal locations cache: %w", err)
	}
	if err := c.redisClient.Set(ctx, c.locationsKey(tenantID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set locations cache: %w", err)
	}
	return nil
}

// GetOccupants 读取人员快照缓存（未命中返回 nil, nil）
func (c *SnapshotCache) GetOccupants(ctx context.Context, tenantID string) ([]*domain.Occupant, error) {
	val, err := c.redisClient.Get(ctx, c.occupantsKey(tenantID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get occupants cache: %w", err)
	}

	var occupants []*domain.Occupant
	if err := json.Unmarshal([]byte(val), &occupants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal occupants cache: %w", err)
	}
	return occupants, nil
}

// SetOccupants 写入人员快照缓存
func (c *SnapshotCache) SetOccupants(ctx context.Context, tenantID string, occupants []*domain.Occupant) error {
	data, err := json.Marshal(occupants)
	if err != nil {
		return fmt.Errorf("failed to marshal occupants cache: %w", err)
	}
	if err := c.redisClient.Set(ctx, c.occupantsKey(tenantID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set occupants cache: %w", err)
	}
	return nil
}

// Invalidate 显式失效某租户的全部快照缓存
// 位置或人员数据变化后必须调用
func (c *SnapshotCache) Invalidate(ctx context.Context, tenantID string) error {
	if err := c.redisClient.Del(ctx, c.locationsKey(tenantID), c.occupantsKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	c.logger.Info("Snapshot cache invalidated",
		zap.String("tenant_id", tenantID),
	)
	return nil
}
