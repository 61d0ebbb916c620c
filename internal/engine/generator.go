package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"wisefido-rollcall/internal/domain"
	"wisefido-rollcall/internal/repository"
	"wisefido-rollcall/internal/routing"

	"go.uber.org/zap"
)

// DefaultVerificationSeconds 单人核验耗时默认值（秒）
// 策略值而非推导值，可通过配置覆盖
const DefaultVerificationSeconds = 30

// Generator 点名生成编排器（公共入口）
// 串起层级展开、占用解析、优先级打分与路线优化
type Generator struct {
	resolver            *Resolver
	schedules           repository.SchedulesRepository
	optimizer           routing.RouteOptimizer
	verificationSeconds int
	logger              *zap.Logger
}

// NewGenerator 创建点名生成器
// verificationSeconds <= 0 时使用默认值
func NewGenerator(
	resolver *Resolver,
	schedules repository.SchedulesRepository,
	optimizer routing.RouteOptimizer,
	verificationSeconds int,
	logger *zap.Logger,
) *Generator {
	if verificationSeconds <= 0 {
		verificationSeconds = DefaultVerificationSeconds
	}
	return &Generator{
		resolver:            resolver,
		schedules:           schedules,
		optimizer:           optimizer,
		verificationSeconds: verificationSeconds,
		logger:              logger,
	}
}

// GenerateRequest 点名生成请求
type GenerateRequest struct {
	LocationIDs  []string
	At           time.Time
	IncludeEmpty bool
}

// Generate 生成点名路线
// 步骤 1-2 的失败是输入校验错误；之后的失败（优化器等）是内部错误。
// 整个调用的存储查询次数有界（至多 4 次），与请求的位置数量无关
func (g *Generator) Generate(ctx context.Context, tenantID string, req GenerateRequest) (*domain.GeneratedRollCall, error) {
	// 1. 去重（保持顺序，保证下游平局裁决确定性）
	if len(req.LocationIDs) == 0 {
		return nil, domain.NewValidationError("location_ids", "at least one location id is required")
	}
	if req.At.IsZero() {
		return nil, domain.NewValidationError("at", "instant is required")
	}
	var requested []string
	seen := make(map[string]bool, len(req.LocationIDs))
	for _, id := range req.LocationIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		requested = append(requested, id)
	}
	if len(requested) == 0 {
		return nil, domain.NewValidationError("location_ids", "at least one location id is required")
	}

	// 2. 加载快照并展开叶子单元
	snap, err := g.resolver.LoadSnapshot(ctx, tenantID, req.At)
	if err != nil {
		return nil, err
	}

	var locationNames []string
	var leafIDs []string
	leafSeen := make(map[string]bool)
	for _, id := range requested {
		if loc, ok := snap.Hierarchy.Location(id); ok {
			locationNames = append(locationNames, loc.LocationName)
		} else {
			locationNames = append(locationNames, "")
		}
		leaves, err := snap.Hierarchy.LeafDescendants(id)
		if err != nil {
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				g.logger.Warn("Unknown location in roll call request",
					zap.String("tenant_id", tenantID),
					zap.String("location_id", id),
				)
				continue
			}
			return nil, err
		}
		for _, leaf := range leaves {
			if !leafSeen[leaf] {
				leafSeen[leaf] = true
				leafIDs = append(leafIDs, leaf)
			}
		}
	}
	if len(leafIDs) == 0 {
		return nil, domain.NewValidationError("location_ids", "no leaf units found under the requested locations")
	}

	// 3. 批量解析每个叶子单元的预期在场人员
	expectedByLeaf := make(map[string][]domain.ExpectedOccupant, len(leafIDs))
	var allOccupantIDs []string
	for _, leaf := range leafIDs {
		expected := snap.ExpectedOccupantsAt(leaf)
		expectedByLeaf[leaf] = expected
		for _, occ := range expected {
			allOccupantIDs = append(allOccupantIDs, occ.OccupantID)
		}
	}

	// 优先级打分：一条批量日程查询做全员前瞻
	if len(allOccupantIDs) > 0 {
		entries, err := g.schedules.EntriesForOccupants(ctx, tenantID, allOccupantIDs)
		if err != nil {
			return nil, domain.NewInternalError("load schedule lookahead", err)
		}
		entriesByOccupant := make(map[string][]*domain.ScheduleEntry)
		for _, e := range entries {
			entriesByOccupant[e.OccupantID] = append(entriesByOccupant[e.OccupantID], e)
		}
		for _, expected := range expectedByLeaf {
			for i := range expected {
				next := NextAppointmentFor(entriesByOccupant[expected[i].OccupantID], req.At)
				expected[i].NextAppointment = next
				expected[i].PriorityScore = Score(next)
			}
			sortByPriority(expected)
		}
	}

	// 汇总统计在未过滤的叶子集合上计算
	totals := domain.RollCallTotals{TotalLocations: len(leafIDs)}
	for _, leaf := range leafIDs {
		count := len(expectedByLeaf[leaf])
		totals.TotalExpectedOccupants += count
		if count > 0 {
			totals.OccupiedLocations++
		}
	}
	totals.EmptyLocations = totals.TotalLocations - totals.OccupiedLocations

	// 4. include_empty=false 时过滤空单元；全空是合法结果而不是错误
	visitIDs := leafIDs
	if !req.IncludeEmpty {
		visitIDs = nil
		for _, leaf := range leafIDs {
			if len(expectedByLeaf[leaf]) > 0 {
				visitIDs = append(visitIDs, leaf)
			}
		}
	}

	// 5. 路线优化
	route := &routing.OrderedRoute{Legs: []routing.RouteLeg{}}
	if len(visitIDs) > 0 {
		stops := make([]*domain.Location, 0, len(visitIDs))
		for _, leaf := range visitIDs {
			if loc, ok := snap.Hierarchy.Location(leaf); ok {
				stops = append(stops, loc)
			}
		}
		route, err = g.optimizer.ComputeRoute(ctx, stops)
		if err != nil {
			g.logger.Error("Route optimizer failed",
				zap.String("tenant_id", tenantID),
				zap.Int("stops", len(stops)),
				zap.Error(err),
			)
			return nil, domain.NewInternalError("compute route", err)
		}
	}

	// 6. 合并路线顺序与占用数据
	stops := make([]domain.RouteStop, 0, len(route.Legs))
	for _, leg := range route.Legs {
		loc, ok := snap.Hierarchy.Location(leg.LocationID)
		if !ok {
			return nil, domain.NewInternalError("merge route", domain.NewNotFoundError("location", leg.LocationID))
		}
		expected := expectedByLeaf[leg.LocationID]
		stops = append(stops, domain.RouteStop{
			VisitOrder:     leg.Order,
			LocationID:     loc.LocationID,
			LocationName:   loc.LocationName,
			LocationType:   loc.LocationType,
			Building:       loc.Building,
			Floor:          loc.Floor,
			Occupied:       len(expected) > 0,
			ExpectedCount:  len(expected),
			DistanceMeters: leg.DistanceMeters,
			TravelSeconds:  leg.TravelSeconds,
			Occupants:      expected,
		})
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].VisitOrder < stops[j].VisitOrder })

	// 7. 汇总
	return &domain.GeneratedRollCall{
		TenantID:                 tenantID,
		LocationIDs:              requested,
		LocationNames:            locationNames,
		GeneratedAt:              req.At,
		IncludeEmpty:             req.IncludeEmpty,
		Stops:                    stops,
		Totals:                   totals,
		EstimatedDurationSeconds: route.TotalSeconds + totals.TotalExpectedOccupants*g.verificationSeconds,
	}, nil
}

// sortByPriority 停靠点内人员按分数降序排列（编号升序作平局裁决，保证确定性）
func sortByPriority(expected []domain.ExpectedOccupant) {
	sort.SliceStable(expected, func(i, j int) bool {
		if expected[i].PriorityScore != expected[j].PriorityScore {
			return expected[i].PriorityScore > expected[j].PriorityScore
		}
		return expected[i].OccupantNumber < expected[j].OccupantNumber
	})
}
