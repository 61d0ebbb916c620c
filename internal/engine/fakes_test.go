package engine

import (
	"context"
	"time"

	"wisefido-rollcall/internal/domain"
	"wisefido-rollcall/internal/routing"
)

// fakeLocationsRepo 内存位置仓库（记录查询次数）
type fakeLocationsRepo struct {
	locations []*domain.Location
	calls     int
}

func (r *fakeLocationsRepo) GetAllLocations(ctx context.Context, tenantID string) ([]*domain.Location, error) {
	r.calls++
	return r.locations, nil
}

func (r *fakeLocationsRepo) GetLocation(ctx context.Context, tenantID, locationID string) (*domain.Location, error) {
	r.calls++
	for _, loc := range r.locations {
		if loc.LocationID == locationID {
			return loc, nil
		}
	}
	return nil, domain.NewNotFoundError("location", locationID)
}

func (r *fakeLocationsRepo) LocationExists(ctx context.Context, tenantID, locationID string) (bool, error) {
	r.calls++
	for _, loc := range r.locations {
		if loc.LocationID == locationID {
			return true, nil
		}
	}
	return false, nil
}

// fakeOccupantsRepo 内存人员仓库（记录查询次数）
type fakeOccupantsRepo struct {
	occupants []*domain.Occupant
	calls     int
}

func (r *fakeOccupantsRepo) GetAllOccupants(ctx context.Context, tenantID string) ([]*domain.Occupant, error) {
	r.calls++
	return r.occupants, nil
}

func (r *fakeOccupantsRepo) GetOccupant(ctx context.Context, tenantID, occupantID string) (*domain.Occupant, error) {
	r.calls++
	for _, occ := range r.occupants {
		if occ.OccupantID == occupantID {
			return occ, nil
		}
	}
	return nil, domain.NewNotFoundError("occupant", occupantID)
}

// fakeSchedulesRepo 内存日程仓库（按接口语义过滤，记录查询次数）
type fakeSchedulesRepo struct {
	entries []*domain.ScheduleEntry
	calls   int
}

func (r *fakeSchedulesRepo) EntriesActiveAt(ctx context.Context, tenantID string, dayOfWeek, minuteOfDay int, date time.Time) ([]*domain.ScheduleEntry, error) {
	r.calls++
	var active []*domain.ScheduleEntry
	for _, e := range r.entries {
		if e.DayOfWeek != dayOfWeek {
			continue
		}
		if minuteOfDay < e.StartMinute || minuteOfDay >= e.EndMinute {
			continue
		}
		if !e.Recurring {
			if e.EffectiveDate == nil || !domain.SameDate(*e.EffectiveDate, date) {
				continue
			}
		}
		active = append(active, e)
	}
	return active, nil
}

func (r *fakeSchedulesRepo) EntriesForOccupant(ctx context.Context, tenantID, occupantID string) ([]*domain.ScheduleEntry, error) {
	r.calls++
	var result []*domain.ScheduleEntry
	for _, e := range r.entries {
		if e.OccupantID == occupantID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeSchedulesRepo) EntriesForOccupants(ctx context.Context, tenantID string, occupantIDs []string) ([]*domain.ScheduleEntry, error) {
	r.calls++
	wanted := make(map[string]bool, len(occupantIDs))
	for _, id := range occupantIDs {
		wanted[id] = true
	}
	var result []*domain.ScheduleEntry
	for _, e := range r.entries {
		if wanted[e.OccupantID] {
			result = append(result, e)
		}
	}
	return result, nil
}

// totalCalls 三个仓库的存储查询总次数
func totalCalls(l *fakeLocationsRepo, o *fakeOccupantsRepo, s *fakeSchedulesRepo) int {
	return l.calls + o.calls + s.calls
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func makeLocation(id, name string, locType domain.LocationType, parentID *string, building, floor string) *domain.Location {
	return &domain.Location{
		LocationID:   id,
		TenantID:     "tenant-1",
		LocationName: name,
		LocationType: locType,
		ParentID:     parentID,
		Building:     building,
		Floor:        floor,
	}
}

func makeOccupant(id, number, name string, cellID *string) *domain.Occupant {
	return &domain.Occupant{
		OccupantID:     id,
		TenantID:       "tenant-1",
		OccupantNumber: number,
		DisplayName:    name,
		CellID:         cellID,
		Status:         "active",
	}
}

func makeEntry(occupantID, locationID string, dayOfWeek, startMinute, endMinute int, activity domain.ActivityType) *domain.ScheduleEntry {
	return &domain.ScheduleEntry{
		EntryID:      "entry-" + occupantID + "-" + locationID,
		TenantID:     "tenant-1",
		OccupantID:   occupantID,
		LocationID:   locationID,
		DayOfWeek:    dayOfWeek,
		StartMinute:  startMinute,
		EndMinute:    endMinute,
		ActivityType: activity,
		Recurring:    true,
	}
}

// failingOptimizer 总是失败的路线优化器
type failingOptimizer struct{}

func (o *failingOptimizer) ComputeRoute(ctx context.Context, stops []*domain.Location) (*routing.OrderedRoute, error) {
	return nil, context.DeadlineExceeded
}
