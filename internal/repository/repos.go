package repository

import (
	"context"
	"time"

	"wisefido-rollcall/internal/domain"
)

// LocationsRepository 位置Repository接口
type LocationsRepository interface {
	// GetAllLocations 获取租户下全部位置（层级索引需要完整快照，不分页）
	GetAllLocations(ctx context.Context, tenantID string) ([]*domain.Location, error)

	// GetLocation 获取单个位置
	GetLocation(ctx context.Context, tenantID, locationID string) (*domain.Location, error)

	// LocationExists 判断位置是否存在
	LocationExists(ctx context.Context, tenantID, locationID string) (bool, error)
}

// OccupantsRepository 在押人员Repository接口
type OccupantsRepository interface {
	// GetAllOccupants 获取租户下全部在册人员
	GetAllOccupants(ctx context.Context, tenantID string) ([]*domain.Occupant, error)

	// GetOccupant 获取单个人员
	GetOccupant(ctx context.Context, tenantID, occupantID string) (*domain.Occupant, error)
}

// SchedulesRepository 日程Repository接口
type SchedulesRepository interface {
	// EntriesActiveAt 查询某星期几、某当日分钟时刻生效中的全部日程条目
	// 必须是单条带索引的查询（整个批量路径的复杂度保证依赖这一点），
	// 一次性条目由 date 参数过滤 effective_date
	EntriesActiveAt(ctx context.Context, tenantID string, dayOfWeek, minuteOfDay int, date time.Time) ([]*domain.ScheduleEntry, error)

	// EntriesForOccupant 查询单个人员的全部日程条目
	// 仅供单人判定路径与优先级前瞻使用，禁止在批量路径中循环调用
	EntriesForOccupant(ctx context.Context, tenantID, occupantID string) ([]*domain.ScheduleEntry, error)

	// EntriesForOccupants 批量查询一组人员的全部日程条目（单条 = ANY 查询）
	// 供点名生成的优先级打分使用，保证整个生成过程的查询次数有界
	EntriesForOccupants(ctx context.Context, tenantID string, occupantIDs []string) ([]*domain.ScheduleEntry, error)
}

// RollCallFilters 点名记录查询过滤器
type RollCallFilters struct {
	ExecutorID string     // 执行人ID
	Status     string     // 状态：'generated'/'in_progress'/'completed'/'cancelled'
	StartTime  *time.Time // 生成时间下界
	EndTime    *time.Time // 生成时间上界
}

// RollCallsRepository 点名记录Repository接口
type RollCallsRepository interface {
	// CreateRollCall 保存点名记录（头信息 + 结果快照）
	CreateRollCall(ctx context.Context, tenantID string, record *domain.RollCallRecord) (string, error)

	// GetRollCall 获取点名记录
	GetRollCall(ctx context.Context, tenantID, rollCallID string) (*domain.RollCallRecord, error)

	// ListRollCalls 批量查询点名记录（支持过滤和分页）
	ListRollCalls(ctx context.Context, tenantID string, filters *RollCallFilters, page, size int) ([]*domain.RollCallRecord, int, error)

	// SetRollCallStatus 更新点名记录状态
	SetRollCallStatus(ctx context.Context, tenantID, rollCallID, status string) error
}
