package cache

import (
	"context"

	"wisefido-rollcall/internal/domain"
	"wisefido-rollcall/internal/repository"

	"go.uber.org/zap"
)

// CachedLocationsRepository 带快照缓存的位置Repository装饰器
// 只缓存全量快照查询；单条查询直接透传
type CachedLocationsRepository struct {
	inner  repository.LocationsRepository
	cache  *SnapshotCache
	logger *zap.Logger
}

// NewCachedLocationsRepository 创建带缓存的位置Repository
func NewCachedLocationsRepository(inner repository.LocationsRepository, cache *SnapshotCache, logger *zap.Logger) *CachedLocationsRepository {
	return &CachedLocationsRepository{inner: inner, cache: cache, logger: logger}
}

var _ repository.LocationsRepository = (*CachedLocationsRepository)(nil)

// GetAllLocations 优先读缓存，未命中时回源并回填
func (r *CachedLocationsRepository) GetAllLocations(ctx context.Context, tenantID string) ([]*domain.Location, error) {
	cached, err := r.cache.GetLocations(ctx, tenantID)
	if err != nil {
		// 缓存故障降级为回源，不影响正确性
		r.logger.Warn("Locations cache read failed, falling back to store",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	} else if cached != nil {
		return cached, nil
	}

	locations, err := r.inner.GetAllLocations(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetLocations(ctx, tenantID, locations); err != nil {
		r.logger.Warn("Locations cache write failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}
	return locations, nil
}

// GetLocation 透传
func (r *CachedLocationsRepository) GetLocation(ctx context.Context, tenantID, locationID string) (*domain.Location, error) {
	return r.inner.GetLocation(ctx, tenantID, locationID)
}

// LocationExists 透传
func (r *CachedLocationsRepository) LocationExists(ctx context.Context, tenantID, locationID string) (bool, error) {
	return r.inner.LocationExists(ctx, tenantID, locationID)
}

// CachedOccupantsRepository 带快照缓存的人员Repository装饰器
type CachedOccupantsRepository struct {
	inner  repository.OccupantsRepository
	cache  *SnapshotCache
	logger *zap.Logger
}

// NewCachedOccupantsRepository 创建带缓存的人员Repository
func NewCachedOccupantsRepository(inner repository.OccupantsRepository, cache *SnapshotCache, logger *zap.Logger) *CachedOccupantsRepository {
	return &CachedOccupantsRepository{inner: inner, cache: cache, logger: logger}
}

var _ repository.OccupantsRepository = (*CachedOccupantsRepository)(nil)

// GetAllOccupants 优先读缓存，未命中时回源并回填
func (r *CachedOccupantsRepository) GetAllOccupants(ctx context.Context, tenantID string) ([]*domain.Occupant, error) {
	cached, err := r.cache.GetOccupants(ctx, tenantID)
	if err != nil {
		r.logger.Warn("Occupants cache read failed, falling back to store",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	} else if cached != nil {
		return cached, nil
	}

	occupants, err := r.inner.GetAllOccupants(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetOccupants(ctx, tenantID, occupants); err != nil {
		r.logger.Warn("Occupants cache write failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}
	return occupants, nil
}

// GetOccupant 透传
func (r *CachedOccupantsRepository) GetOccupant(ctx context.Context, tenantID, occupantID string) (*domain.Occupant, error) {
	return r.inner.GetOccupant(ctx, tenantID, occupantID)
}
