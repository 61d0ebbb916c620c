package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"wisefido-rollcall/internal/domain"
	"wisefido-rollcall/internal/routing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGenerator(locations *fakeLocationsRepo, occupants *fakeOccupantsRepo, schedules *fakeSchedulesRepo) *Generator {
	resolver := newTestResolver(locations, occupants, schedules)
	return NewGenerator(resolver, schedules, routing.NewNearestNeighborOptimizer(), 30, zap.NewNop())
}

// wingFixture 单翼场景：wing-a 下两间牢房加一个车间，
// occupant-1 住 cell-1 但周二上午在车间，occupant-2 住 cell-2 无日程
func wingFixture() (*fakeLocationsRepo, *fakeOccupantsRepo, *fakeSchedulesRepo) {
	locations := &fakeLocationsRepo{locations: []*domain.Location{
		makeLocation("wing-a", "Wing A", domain.LocationTypeWing, nil, "A", "1F"),
		makeLocation("cell-1", "Cell 1", domain.LocationTypeCell, strPtr("wing-a"), "A", "1F"),
		makeLocation("cell-2", "Cell 2", domain.LocationTypeCell, strPtr("wing-a"), "A", "1F"),
		makeLocation("workshop-1", "Workshop", domain.LocationTypeWorkshop, nil, "B", "1F"),
	}}
	occupants := &fakeOccupantsRepo{occupants: []*domain.Occupant{
		makeOccupant("occupant-1", "A1001", "First Occupant", strPtr("cell-1")),
		makeOccupant("occupant-2", "A1002", "Second Occupant", strPtr("cell-2")),
	}}
	schedules := &fakeSchedulesRepo{entries: []*domain.ScheduleEntry{
		makeEntry("occupant-1", "workshop-1", 2, 540, 720, domain.ActivityWork),
	}}
	return locations, occupants, schedules
}

func TestGenerate_WingScenario(t *testing.T) {
	locations, occupants, schedules := wingFixture()
	gen := newTestGenerator(locations, occupants, schedules)

	result, err := gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs: []string{"wing-a"},
		At:          tuesdayAt(9, 30),
	})
	require.NoError(t, err)

	// cell-1 空（住户在车间），include_empty=false 只剩 cell-2
	require.Len(t, result.Stops, 1)
	stop := result.Stops[0]
	assert.Equal(t, "cell-2", stop.LocationID)
	assert.Equal(t, 1, stop.VisitOrder)
	assert.True(t, stop.Occupied)
	assert.Equal(t, 1, stop.ExpectedCount)
	require.Len(t, stop.Occupants, 1)
	assert.Equal(t, "occupant-2", stop.Occupants[0].OccupantID)

	// 汇总统计在未过滤的叶子集合上计算
	assert.Equal(t, 2, result.Totals.TotalLocations)
	assert.Equal(t, 1, result.Totals.OccupiedLocations)
	assert.Equal(t, 1, result.Totals.EmptyLocations)
	assert.Equal(t, 1, result.Totals.TotalExpectedOccupants)

	// 首站行走耗时为 0，总耗时 = 路线 0 + 1 人 × 30 秒
	assert.Equal(t, 30, result.EstimatedDurationSeconds)

	assert.Equal(t, []string{"wing-a"}, result.LocationIDs)
	assert.Equal(t, []string{"Wing A"}, result.LocationNames)
	assert.Equal(t, tuesdayAt(9, 30), result.GeneratedAt)
}

func TestGenerate_IncludeEmpty(t *testing.T) {
	locations, occupants, schedules := wingFixture()
	gen := newTestGenerator(locations, occupants, schedules)

	result, err := gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs:  []string{"wing-a"},
		At:           tuesdayAt(9, 30),
		IncludeEmpty: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Stops, 2)
	assert.Equal(t, 1, result.Stops[0].VisitOrder)
	assert.Equal(t, 2, result.Stops[1].VisitOrder)

	// 空单元也在路线中，占用标记为 false
	byID := make(map[string]domain.RouteStop)
	for _, s := range result.Stops {
		byID[s.LocationID] = s
	}
	assert.False(t, byID["cell-1"].Occupied)
	assert.True(t, byID["cell-2"].Occupied)

	// 汇总统计与 include_empty=false 时一致
	assert.Equal(t, 2, result.Totals.TotalLocations)
	assert.Equal(t, 1, result.Totals.TotalExpectedOccupants)
}

func TestGenerate_AllEmptyIsValidResult(t *testing.T) {
	locations, occupants, schedules := wingFixture()
	// 全员都被调度到车间
	schedules.entries = append(schedules.entries,
		makeEntry("occupant-2", "workshop-1", 2, 540, 720, domain.ActivityWork),
	)
	gen := newTestGenerator(locations, occupants, schedules)

	result, err := gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs: []string{"wing-a"},
		At:          tuesdayAt(9, 30),
	})
	require.NoError(t, err)

	// 空路线是合法结果而不是错误
	assert.Empty(t, result.Stops)
	assert.Equal(t, 2, result.Totals.TotalLocations)
	assert.Equal(t, 2, result.Totals.EmptyLocations)
	assert.Equal(t, 0, result.Totals.TotalExpectedOccupants)
	assert.Equal(t, 0, result.EstimatedDurationSeconds)
}

func TestGenerate_QueryCountBounded(t *testing.T) {
	locations := &fakeLocationsRepo{locations: testFacility()}

	// 大量人员与牢房也不增加查询次数
	var occs []*domain.Occupant
	for _, cell := range []string{"cell-101", "cell-102", "cell-201"} {
		for i := 0; i < 10; i++ {
			id := cell + "-occ-" + string(rune('a'+i))
			occs = append(occs, makeOccupant(id, "N"+id, "Occupant "+id, strPtr(cell)))
		}
	}
	occupants := &fakeOccupantsRepo{occupants: occs}
	schedules := &fakeSchedulesRepo{}

	gen := newTestGenerator(locations, occupants, schedules)

	_, err := gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs: []string{"facility-1"},
		At:          tuesdayAt(9, 30),
	})
	require.NoError(t, err)

	// 三次快照查询 + 一次批量日程前瞻
	assert.Equal(t, 4, totalCalls(locations, occupants, schedules))

	// 单个位置的请求查询次数相同
	locations.calls, occupants.calls, schedules.calls = 0, 0, 0
	_, err = gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs: []string{"cell-101"},
		At:          tuesdayAt(9, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, totalCalls(locations, occupants, schedules))
}

func TestGenerate_Deterministic(t *testing.T) {
	locations, occupants, schedules := wingFixture()
	gen := newTestGenerator(locations, occupants, schedules)

	req := GenerateRequest{
		LocationIDs:  []string{"wing-a", "workshop-1"},
		At:           tuesdayAt(9, 30),
		IncludeEmpty: true,
	}

	first, err := gen.Generate(context.Background(), "tenant-1", req)
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), "tenant-1", req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_PriorityOrderingWithinStop(t *testing.T) {
	locations := &fakeLocationsRepo{locations: []*domain.Location{
		makeLocation("cell-1", "Cell 1", domain.LocationTypeCell, nil, "A", "1F"),
		makeLocation("healthcare-1", "Healthcare", domain.LocationTypeHealthcare, nil, "C", "1F"),
		makeLocation("visits-1", "Visits Hall", domain.LocationTypeVisits, nil, "C", "1F"),
	}}
	occupants := &fakeOccupantsRepo{occupants: []*domain.Occupant{
		makeOccupant("occupant-b", "B2", "No Schedule", strPtr("cell-1")),
		makeOccupant("occupant-a", "A1", "Healthcare Soon", strPtr("cell-1")),
		makeOccupant("occupant-c", "C3", "Visit Later", strPtr("cell-1")),
	}}
	schedules := &fakeSchedulesRepo{entries: []*domain.ScheduleEntry{
		// A：09:40 医疗（10 分钟后）=> 100，紧急
		makeEntry("occupant-a", "healthcare-1", 2, 580, 640, domain.ActivityHealthcare),
		// C：10:15 会见（45 分钟后）=> 75
		makeEntry("occupant-c", "visits-1", 2, 615, 675, domain.ActivityVisits),
	}}
	gen := newTestGenerator(locations, occupants, schedules)

	result, err := gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs: []string{"cell-1"},
		At:          tuesdayAt(9, 30),
	})
	require.NoError(t, err)

	require.Len(t, result.Stops, 1)
	occs := result.Stops[0].Occupants
	require.Len(t, occs, 3)

	assert.Equal(t, "occupant-a", occs[0].OccupantID)
	assert.Equal(t, 100, occs[0].PriorityScore)
	require.NotNil(t, occs[0].NextAppointment)
	assert.True(t, occs[0].NextAppointment.Urgent)

	assert.Equal(t, "occupant-c", occs[1].OccupantID)
	assert.Equal(t, 75, occs[1].PriorityScore)

	assert.Equal(t, "occupant-b", occs[2].OccupantID)
	assert.Equal(t, 50, occs[2].PriorityScore)
	assert.Nil(t, occs[2].NextAppointment)
}

func TestGenerate_InputValidation(t *testing.T) {
	locations, occupants, schedules := wingFixture()
	gen := newTestGenerator(locations, occupants, schedules)

	var ve *domain.ValidationError

	_, err := gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		At: tuesdayAt(9, 30),
	})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "location_ids", ve.Field)

	_, err = gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs: []string{"wing-a"},
	})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "at", ve.Field)

	// 全部位置都未知：没有叶子单元可点名
	_, err = gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs: []string{"no-such-location"},
		At:          tuesdayAt(9, 30),
	})
	require.True(t, errors.As(err, &ve))
}

func TestGenerate_DeduplicatesOverlappingLocations(t *testing.T) {
	locations, occupants, schedules := wingFixture()
	gen := newTestGenerator(locations, occupants, schedules)

	// wing-a 已包含 cell-2，重复请求不会产生重复停靠点
	result, err := gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs:  []string{"wing-a", "cell-2", "wing-a"},
		At:           tuesdayAt(9, 30),
		IncludeEmpty: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"wing-a", "cell-2"}, result.LocationIDs)
	assert.Len(t, result.Stops, 2)
	assert.Equal(t, 2, result.Totals.TotalLocations)
}

func TestGenerate_OptimizerFailure(t *testing.T) {
	locations, occupants, schedules := wingFixture()
	resolver := newTestResolver(locations, occupants, schedules)
	gen := NewGenerator(resolver, schedules, &failingOptimizer{}, 30, zap.NewNop())

	_, err := gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs: []string{"wing-a"},
		At:          tuesdayAt(9, 30),
	})

	var ie *domain.InternalError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "compute route", ie.Op)
}

func TestGenerate_TravelTimeInDuration(t *testing.T) {
	// 跨楼栋两站：第二段 150 米 / 1.25 m/s = 120 秒
	locations := &fakeLocationsRepo{locations: []*domain.Location{
		makeLocation("cell-1", "Cell 1", domain.LocationTypeCell, nil, "A", "1F"),
		makeLocation("cell-2", "Cell 2", domain.LocationTypeCell, nil, "B", "1F"),
	}}
	occupants := &fakeOccupantsRepo{occupants: []*domain.Occupant{
		makeOccupant("occupant-1", "A1001", "First", strPtr("cell-1")),
		makeOccupant("occupant-2", "A1002", "Second", strPtr("cell-2")),
	}}
	schedules := &fakeSchedulesRepo{}
	gen := newTestGenerator(locations, occupants, schedules)

	result, err := gen.Generate(context.Background(), "tenant-1", GenerateRequest{
		LocationIDs: []string{"cell-1", "cell-2"},
		At:          tuesdayAt(9, 30),
	})
	require.NoError(t, err)

	require.Len(t, result.Stops, 2)
	assert.Equal(t, 0, result.Stops[0].TravelSeconds)
	assert.Equal(t, 120, result.Stops[1].TravelSeconds)
	assert.Equal(t, 120+2*30, result.EstimatedDurationSeconds)
}

func TestGenerate_ContextCancellation(t *testing.T) {
	locations, occupants, schedules := wingFixture()
	gen := newTestGenerator(locations, occupants, schedules)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := gen.Generate(ctx, "tenant-1", GenerateRequest{
		LocationIDs: []string{"wing-a"},
		At:          tuesdayAt(9, 30),
	})
	require.NoError(t, err)
}
