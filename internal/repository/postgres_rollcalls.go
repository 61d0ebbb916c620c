package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"wisefido-rollcall/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresRollCallsRepository 点名记录Repository实现
type PostgresRollCallsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresRollCallsRepository 创建点名记录Repository
func NewPostgresRollCallsRepository(db *sql.DB, logger *zap.Logger) *PostgresRollCallsRepository {
	return &PostgresRollCallsRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ RollCallsRepository = (*PostgresRollCallsRepository)(nil)

// CreateRollCall 保存点名记录
func (r *PostgresRollCallsRepository) CreateRollCall(ctx context.Context, tenantID string, record *domain.RollCallRecord) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}
	if record.Status == "" {
		record.Status = "generated"
	}
	if record.GeneratedAt.IsZero() {
		record.GeneratedAt = time.Now()
	}
	if record.RollCallID == "" {
		record.RollCallID = uuid.New().String()
	}

	query := `
		INSERT INTO roll_calls (
			roll_call_id,
			tenant_id,
			executor_id,
			generated_at,
			status,
			snapshot
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING roll_call_id::text
	`

	var executorID interface{}
	if record.ExecutorID != "" {
		executorID = record.ExecutorID
	}

	var rollCallID string
	err := r.db.QueryRowContext(ctx, query, record.RollCallID, tenantID, executorID,
		record.GeneratedAt, record.Status, record.Snapshot).Scan(&rollCallID)
	if err != nil {
		return "", fmt.Errorf("failed to create roll call: %w", err)
	}

	return rollCallID, nil
}

// GetRollCall 获取点名记录
func (r *PostgresRollCallsRepository) GetRollCall(ctx context.Context, tenantID, rollCallID string) (*domain.RollCallRecord, error) {
	if tenantID == "" || rollCallID == "" {
		return nil, fmt.Errorf("tenant_id and roll_call_id are required")
	}

	query := `
		SELECT
			roll_call_id::text,
			tenant_id::text,
			executor_id::text,
			generated_at,
			status,
			snapshot
		FROM roll_calls
		WHERE tenant_id = $1 AND roll_call_id = $2
	`

	var record domain.RollCallRecord
	var executorID sql.NullString

	err := r.db.QueryRowContext(ctx, query, tenantID, rollCallID).Scan(
		&record.RollCallID,
		&record.TenantID,
		&executorID,
		&record.GeneratedAt,
		&record.Status,
		&record.Snapshot,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("roll_call", rollCallID)
		}
		return nil, fmt.Errorf("failed to get roll call: %w", err)
	}

	if executorID.Valid {
		record.ExecutorID = executorID.String
	}
	return &record, nil
}

// ListRollCalls 批量查询点名记录（支持过滤和分页）
func (r *PostgresRollCallsRepository) ListRollCalls(ctx context.Context, tenantID string, filters *RollCallFilters, page, size int) ([]*domain.RollCallRecord, int, error) {
	if tenantID == "" {
		return []*domain.RollCallRecord{}, 0, nil
	}

	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argN := 2

	if filters != nil {
		if filters.ExecutorID != "" {
			where = append(where, fmt.Sprintf("executor_id = $%d", argN))
			args = append(args, filters.ExecutorID)
			argN++
		}
		if filters.Status != "" {
			where = append(where, fmt.Sprintf("status = $%d", argN))
			args = append(args, filters.Status)
			argN++
		}
		if filters.StartTime != nil {
			where = append(where, fmt.Sprintf("generated_at >= $%d", argN))
			args = append(args, *filters.StartTime)
			argN++
		}
		if filters.EndTime != nil {
			where = append(where, fmt.Sprintf("generated_at <= $%d", argN))
			args = append(args, *filters.EndTime)
			argN++
		}
	}

	queryCount := `
		SELECT COUNT(*)
		FROM roll_calls
		WHERE ` + strings.Join(where, " AND ")
	var total int
	if err := r.db.QueryRowContext(ctx, queryCount, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count roll calls: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	argsList := append(args, size, offset)
	query := `
		SELECT
			roll_call_id::text,
			tenant_id::text,
			executor_id::text,
			generated_at,
			status,
			snapshot
		FROM roll_calls
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY generated_at DESC
		LIMIT $` + fmt.Sprintf("%d", argN) + ` OFFSET $` + fmt.Sprintf("%d", argN+1)

	rows, err := r.db.QueryContext(ctx, query, argsList...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list roll calls: %w", err)
	}
	defer rows.Close()

	var records []*domain.RollCallRecord
	for rows.Next() {
		var record domain.RollCallRecord
		var executorID sql.NullString

		if err := rows.Scan(
			&record.RollCallID,
			&record.TenantID,
			&executorID,
			&record.GeneratedAt,
			&record.Status,
			&record.Snapshot,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan roll call: %w", err)
		}

		if executorID.Valid {
			record.ExecutorID = executorID.String
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate roll calls: %w", err)
	}

	return records, total, nil
}

// SetRollCallStatus 更新点名记录状态
func (r *PostgresRollCallsRepository) SetRollCallStatus(ctx context.Context, tenantID, rollCallID, status string) error {
	if tenantID == "" || rollCallID == "" {
		return fmt.Errorf("tenant_id and roll_call_id are required")
	}
	if status != "generated" && status != "in_progress" && status != "completed" && status != "cancelled" {
		return fmt.Errorf("invalid status: %s", status)
	}

	query := `
		UPDATE roll_calls
		SET status = $3
		WHERE tenant_id = $1 AND roll_call_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, rollCallID, status)
	if err != nil {
		return fmt.Errorf("failed to set roll call status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError("roll_call", rollCallID)
	}

	return nil
}
