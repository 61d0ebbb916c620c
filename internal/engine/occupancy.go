package engine

import (
	"context"
	"errors"
	"time"

	"wisefido-rollcall/internal/domain"
	"wisefido-rollcall/internal/repository"

	"go.uber.org/zap"
)

// Resolver 在场人员解析器
// 把位置层级、居住分配、生效日程三个快照组合起来，
// 回答"某时刻某叶子单元内预期在场哪些人"
type Resolver struct {
	locations repository.LocationsRepository
	occupants repository.OccupantsRepository
	schedules repository.SchedulesRepository
	logger    *zap.Logger
}

// NewResolver 创建解析器
func NewResolver(
	locations repository.LocationsRepository,
	occupants repository.OccupantsRepository,
	schedules repository.SchedulesRepository,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		locations: locations,
		occupants: occupants,
		schedules: schedules,
		logger:    logger,
	}
}

// Snapshot 某一时刻的占用快照（三次存储读取后全内存运算）
type Snapshot struct {
	At         time.Time
	Hierarchy  *HierarchyIndex
	Assignment *AssignmentIndex

	// occupant_id -> 该时刻生效中的日程条目
	ActiveEntries map[string][]*domain.ScheduleEntry
}

// LoadSnapshot 加载占用快照
// 固定三次存储查询：全部位置、全部人员、该时刻生效的日程窗口。
// 批量路径禁止任何按位置/按人员的循环查询，否则退化为 O(位置×人员)
func (r *Resolver) LoadSnapshot(ctx context.Context, tenantID string, at time.Time) (*Snapshot, error) {
	if at.IsZero() {
		return nil, domain.NewValidationError("at", "instant is required")
	}

	locations, err := r.locations.GetAllLocations(ctx, tenantID)
	if err != nil {
		return nil, domain.NewInternalError("load locations snapshot", err)
	}

	occupants, err := r.occupants.GetAllOccupants(ctx, tenantID)
	if err != nil {
		return nil, domain.NewInternalError("load occupants snapshot", err)
	}

	entries, err := r.schedules.EntriesActiveAt(ctx, tenantID, int(at.Weekday()), domain.MinuteOfDay(at), at)
	if err != nil {
		return nil, domain.NewInternalError("load active schedule snapshot", err)
	}

	return &Snapshot{
		At:            at,
		Hierarchy:     BuildHierarchyIndex(locations),
		Assignment:    BuildAssignmentIndex(occupants),
		ActiveEntries: ActiveByOccupant(entries),
	}, nil
}

// ExpectedOccupantsAt 计算某叶子单元内预期在场的人员
// 以该单元为默认居住地、且没有任何生效日程把其调度到别处的人员视为在场；
// 没有任何日程数据的人员默认视为在住（这是刻意的产品决策，不得更改）
func (s *Snapshot) ExpectedOccupantsAt(cellID string) []domain.ExpectedOccupant {
	var expected []domain.ExpectedOccupant
	for _, occ := range s.Assignment.OccupantsAt(cellID) {
		elsewhere := false
		activity := domain.ActivityInUnit
		for _, e := range s.ActiveEntries[occ.OccupantID] {
			if e.LocationID != cellID {
				elsewhere = true
				break
			}
			// 生效条目指向本单元（如收监锁闭）：仍在住，记录当前活动
			activity = e.ActivityType
		}
		if elsewhere {
			continue
		}
		expected = append(expected, domain.ExpectedOccupant{
			OccupantID:      occ.OccupantID,
			OccupantNumber:  occ.OccupantNumber,
			DisplayName:     occ.DisplayName,
			CellID:          cellID,
			AtDefault:       true,
			CurrentActivity: activity,
		})
	}
	return expected
}

// ExpectedCountAt 计算某叶子单元的预期在场人数
func (s *Snapshot) ExpectedCountAt(cellID string) int {
	count := 0
	for _, occ := range s.Assignment.OccupantsAt(cellID) {
		elsewhere := false
		for _, e := range s.ActiveEntries[occ.OccupantID] {
			if e.LocationID != cellID {
				elsewhere = true
				break
			}
		}
		if !elsewhere {
			count++
		}
	}
	return count
}

// IsAtDefault 单人判定路径：某人员某时刻是否在默认单元
// 零条生效日程 => 在住；任一生效日程指向别处 => 不在住；
// 全部生效日程都指向本单元 => 在住。
// 每次调用一条按人员的查询，只适合零星核对，禁止对全监区循环调用
func (r *Resolver) IsAtDefault(ctx context.Context, tenantID, occupantID, homeCellID string, at time.Time) (bool, error) {
	if at.IsZero() {
		return false, domain.NewValidationError("at", "instant is required")
	}
	if occupantID == "" {
		return false, domain.NewValidationError("occupant_id", "occupant_id is required")
	}
	if homeCellID == "" {
		return false, domain.NewValidationError("cell_id", "cell_id is required")
	}

	entries, err := r.schedules.EntriesForOccupant(ctx, tenantID, occupantID)
	if err != nil {
		return false, domain.NewInternalError("load occupant schedule", err)
	}

	for _, e := range entries {
		if EntryActiveAt(e, at) && e.LocationID != homeCellID {
			return false, nil
		}
	}
	return true, nil
}

// BatchExpectedCounts 批量路径：一组（可为非叶子）位置的预期在场人数
// 三次快照查询后全内存展开；未知位置 ID 计为 0 并告警，不使整批失败
func (r *Resolver) BatchExpectedCounts(ctx context.Context, tenantID string, locationIDs []string, at time.Time) (map[string]int, error) {
	if len(locationIDs) == 0 {
		return nil, domain.NewValidationError("location_ids", "at least one location id is required")
	}

	snap, err := r.LoadSnapshot(ctx, tenantID, at)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(locationIDs))
	for _, id := range locationIDs {
		leaves, err := snap.Hierarchy.LeafDescendants(id)
		if err != nil {
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				r.logger.Warn("Unknown location in batch counts, counting zero",
					zap.String("tenant_id", tenantID),
					zap.String("location_id", id),
				)
				counts[id] = 0
				continue
			}
			return nil, err
		}
		total := 0
		for _, leaf := range leaves {
			total += snap.ExpectedCountAt(leaf)
		}
		counts[id] = total
	}
	return counts, nil
}
