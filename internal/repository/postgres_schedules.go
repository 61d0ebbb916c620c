package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wisefido-rollcall/internal/domain"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresSchedulesRepository 日程Repository实现
type PostgresSchedulesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresSchedulesRepository 创建日程Repository
func NewPostgresSchedulesRepository(db *sql.DB, logger *zap.Logger) *PostgresSchedulesRepository {
	return &PostgresSchedulesRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ SchedulesRepository = (*PostgresSchedulesRepository)(nil)

const scheduleColumns = `
	entry_id::text,
	tenant_id::text,
	occupant_id::text,
	location_id::text,
	day_of_week,
	start_minute,
	end_minute,
	activity_type,
	recurring,
	effective_date
`

// EntriesActiveAt 查询某星期几、某当日分钟生效中的全部日程条目
// 半开区间：start_minute <= t < end_minute。
// 必须保持单条带索引查询——整个批量路径的线性复杂度依赖这一契约，
// 禁止改成按人员扇出后在调用方过滤
func (r *PostgresSchedulesRepository) EntriesActiveAt(ctx context.Context, tenantID string, dayOfWeek, minuteOfDay int, date time.Time) ([]*domain.ScheduleEntry, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, domain.NewValidationError("day_of_week", fmt.Sprintf("out of range: %d", dayOfWeek))
	}
	if minuteOfDay < 0 || minuteOfDay > 1439 {
		return nil, domain.NewValidationError("minute_of_day", fmt.Sprintf("out of range: %d", minuteOfDay))
	}

	query := `
		SELECT ` + scheduleColumns + `
		FROM schedule_entries
		WHERE tenant_id = $1
		  AND day_of_week = $2
		  AND start_minute <= $3
		  AND end_minute > $3
		  AND (recurring = TRUE OR effective_date = $4::date)
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, dayOfWeek, minuteOfDay, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query active schedule entries: %w", err)
	}
	defer rows.Close()

	return scanScheduleEntries(rows)
}

// EntriesForOccupant 查询单个人员的全部日程条目
// 仅供单人判定与优先级前瞻使用
func (r *PostgresSchedulesRepository) EntriesForOccupant(ctx context.Context, tenantID, occupantID string) ([]*domain.ScheduleEntry, error) {
	if tenantID == "" || occupantID == "" {
		return nil, fmt.Errorf("tenant_id and occupant_id are required")
	}

	query := `
		SELECT ` + scheduleColumns + `
		FROM schedule_entries
		WHERE tenant_id = $1 AND occupant_id = $2
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, occupantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupant schedule entries: %w", err)
	}
	defer rows.Close()

	return scanScheduleEntries(rows)
}

// EntriesForOccupants 批量查询一组人员的全部日程条目（单条 = ANY 查询）
func (r *PostgresSchedulesRepository) EntriesForOccupants(ctx context.Context, tenantID string, occupantIDs []string) ([]*domain.ScheduleEntry, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if len(occupantIDs) == 0 {
		return []*domain.ScheduleEntry{}, nil
	}

	query := `
		SELECT ` + scheduleColumns + `
		FROM schedule_entries
		WHERE tenant_id = $1 AND occupant_id = ANY($2)
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(occupantIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule entries batch: %w", err)
	}
	defer rows.Close()

	return scanScheduleEntries(rows)
}

// scanScheduleEntries 扫描日程条目并在边界校验 activity_type 闭合集合
// 数据生成脚本曾写入过核心不认识的活动标签，这里显式拒绝而不是静默透传
func scanScheduleEntries(rows *sql.Rows) ([]*domain.ScheduleEntry, error) {
	var entries []*domain.ScheduleEntry
	for rows.Next() {
		var e domain.ScheduleEntry
		var activityType string
		var effectiveDate sql.NullTime

		if err := rows.Scan(
			&e.EntryID,
			&e.TenantID,
			&e.OccupantID,
			&e.LocationID,
			&e.DayOfWeek,
			&e.StartMinute,
			&e.EndMinute,
			&activityType,
			&e.Recurring,
			&effectiveDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}

		e.ActivityType = domain.ActivityType(activityType)
		if !e.ActivityType.IsValid() {
			return nil, domain.NewValidationError("activity_type",
				fmt.Sprintf("unknown activity type %q for entry %s", activityType, e.EntryID))
		}
		if effectiveDate.Valid {
			e.EffectiveDate = &effectiveDate.Time
		}

		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule entries: %w", err)
	}

	return entries, nil
}
