package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-rollcall/internal/domain"

	"go.uber.org/zap"
)

// PostgresOccupantsRepository 在押人员Repository实现
type PostgresOccupantsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresOccupantsRepository 创建在押人员Repository
func NewPostgresOccupantsRepository(db *sql.DB, logger *zap.Logger) *PostgresOccupantsRepository {
	return &PostgresOccupantsRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ OccupantsRepository = (*PostgresOccupantsRepository)(nil)

// GetAllOccupants 获取租户下全部在册人员
func (r *PostgresOccupantsRepository) GetAllOccupants(ctx context.Context, tenantID string) ([]*domain.Occupant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT
			occupant_id::text,
			tenant_id::text,
			occupant_number,
			display_name,
			cell_id::text,
			status
		FROM occupants
		WHERE tenant_id = $1 AND status = 'active'
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupants: %w", err)
	}
	defer rows.Close()

	var occupants []*domain.Occupant
	for rows.Next() {
		var occ domain.Occupant
		var cellID sql.NullString

		if err := rows.Scan(
			&occ.OccupantID,
			&occ.TenantID,
			&occ.OccupantNumber,
			&occ.DisplayName,
			&cellID,
			&occ.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan occupant: %w", err)
		}
		if cellID.Valid {
			occ.CellID = &cellID.String
		}
		occupants = append(occupants, &occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate occupants: %w", err)
	}

	return occupants, nil
}

// GetOccupant 获取单个人员
func (r *PostgresOccupantsRepository) GetOccupant(ctx context.Context, tenantID, occupantID string) (*domain.Occupant, error) {
	if tenantID == "" || occupantID == "" {
		return nil, fmt.Errorf("tenant_id and occupant_id are required")
	}

	query := `
		SELECT
			occupant_id::text,
			tenant_id::text,
			occupant_number,
			display_name,
			cell_id::text,
			status
		FROM occupants
		WHERE tenant_id = $1 AND occupant_id = $2
	`

	var occ domain.Occupant
	var cellID sql.NullString

	err := r.db.QueryRowContext(ctx, query, tenantID, occupantID).Scan(
		&occ.OccupantID,
		&occ.TenantID,
		&occ.OccupantNumber,
		&occ.DisplayName,
		&cellID,
		&occ.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("occupant", occupantID)
		}
		return nil, fmt.Errorf("failed to get occupant: %w", err)
	}

	if cellID.Valid {
		occ.CellID = &cellID.String
	}
	return &occ, nil
}
