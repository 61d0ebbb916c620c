package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-rollcall/internal/domain"

	"go.uber.org/zap"
)

// PostgresLocationsRepository 位置Repository实现
type PostgresLocationsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresLocationsRepository 创建位置Repository
func NewPostgresLocationsRepository(db *sql.DB, logger *zap.Logger) *PostgresLocationsRepository {
	return &PostgresLocationsRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ LocationsRepository = (*PostgresLocationsRepository)(nil)

// GetAllLocations 获取租户下全部位置（不分页，层级索引需要完整快照）
func (r *PostgresLocationsRepository) GetAllLocations(ctx context.Context, tenantID string) ([]*domain.Location, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT
			location_id::text,
			tenant_id::text,
			location_name,
			location_type,
			parent_id::text,
			building,
			floor,
			capacity
		FROM locations
		WHERE tenant_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locations []*domain.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}

	return locations, nil
}

// GetLocation 获取单个位置
func (r *PostgresLocationsRepository) GetLocation(ctx context.Context, tenantID, locationID string) (*domain.Location, error) {
	if tenantID == "" || locationID == "" {
		return nil, fmt.Errorf("tenant_id and location_id are required")
	}

	query := `
		SELECT
			location_id::text,
			tenant_id::text,
			location_name,
			location_type,
			parent_id::text,
			building,
			floor,
			capacity
		FROM locations
		WHERE tenant_id = $1 AND location_id = $2
	`

	loc, err := scanLocation(r.db.QueryRowContext(ctx, query, tenantID, locationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("location", locationID)
		}
		return nil, err
	}
	return loc, nil
}

// LocationExists 判断位置是否存在
func (r *PostgresLocationsRepository) LocationExists(ctx context.Context, tenantID, locationID string) (bool, error) {
	if tenantID == "" || locationID == "" {
		return false, fmt.Errorf("tenant_id and location_id are required")
	}

	query := `SELECT EXISTS(SELECT 1 FROM locations WHERE tenant_id = $1 AND location_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, locationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check location: %w", err)
	}
	return exists, nil
}

// rowScanner QueryRow/Rows 共用的扫描接口
type rowScanner interface {
	Scan(dest ...any) error
}

// scanLocation 扫描一行位置并在边界校验 location_type 闭合集合
// 未知类型标签转换为显式的 ValidationError，而不是在解析器深处崩溃
func scanLocation(row rowScanner) (*domain.Location, error) {
	var loc domain.Location
	var locationType string
	var parentID sql.NullString

	if err := row.Scan(
		&loc.LocationID,
		&loc.TenantID,
		&loc.LocationName,
		&locationType,
		&parentID,
		&loc.Building,
		&loc.Floor,
		&loc.Capacity,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan location: %w", err)
	}

	loc.LocationType = domain.LocationType(locationType)
	if !loc.LocationType.IsValid() {
		return nil, domain.NewValidationError("location_type",
			fmt.Sprintf("unknown location type %q for location %s", locationType, loc.LocationID))
	}
	if parentID.Valid {
		loc.ParentID = &parentID.String
	}

	return &loc, nil
}
