package routing

import (
	"context"
	"strconv"
	"strings"

	"wisefido-rollcall/internal/domain"
)

// RouteLeg 路线中的一段：到达某叶子单元（首段距离/耗时为 0）
type RouteLeg struct {
	LocationID     string  `json:"location_id"`
	Order          int     `json:"order"`
	DistanceMeters float64 `json:"distance_meters"`
	TravelSeconds  int     `json:"travel_seconds"`
}

// OrderedRoute 优化后的巡检路线
type OrderedRoute struct {
	Legs         []RouteLeg `json:"legs"`
	TotalSeconds int        `json:"total_seconds"`
}

// RouteOptimizer 路线优化器契约
// 输入无序的叶子单元集合，输出覆盖每个输入恰好一次的全序路线，
// 距离/耗时非负；内部算法不做约定（近邻、图最短路等均可）
type RouteOptimizer interface {
	ComputeRoute(ctx context.Context, stops []*domain.Location) (*OrderedRoute, error)
}

// 步行成本模型（米/秒），按楼栋与楼层差估算
const (
	sameFloorMeters     = 25.0  // 同楼栋同层相邻单元
	perFloorMeters      = 40.0  // 同楼栋每差一层
	crossBuildingMeters = 150.0 // 跨楼栋基础距离

	walkMetersPerSecond = 1.25
)

// NearestNeighborOptimizer 进程内近邻路线优化器
// 完全确定性：固定起点选择与平局裁决，保证相同输入产出相同路线
type NearestNeighborOptimizer struct{}

// NewNearestNeighborOptimizer 创建近邻优化器
func NewNearestNeighborOptimizer() *NearestNeighborOptimizer {
	return &NearestNeighborOptimizer{}
}

var _ RouteOptimizer = (*NearestNeighborOptimizer)(nil)

// ComputeRoute 计算巡检路线
func (o *NearestNeighborOptimizer) ComputeRoute(ctx context.Context, stops []*domain.Location) (*OrderedRoute, error) {
	route := &OrderedRoute{Legs: []RouteLeg{}}
	if len(stops) == 0 {
		return route, nil
	}

	remaining := append([]*domain.Location(nil), stops...)

	// 起点：排序键（楼栋、楼层、名称、ID）最小的单元
	startIdx := 0
	for i := 1; i < len(remaining); i++ {
		if sortKey(remaining[i]) < sortKey(remaining[startIdx]) {
			startIdx = i
		}
	}

	current := remaining[startIdx]
	remaining = append(remaining[:startIdx], remaining[startIdx+1:]...)
	route.Legs = append(route.Legs, RouteLeg{
		LocationID:     current.LocationID,
		Order:          1,
		DistanceMeters: 0,
		TravelSeconds:  0,
	})

	for len(remaining) > 0 {
		bestIdx := 0
		bestCost := walkDistance(current, remaining[0])
		for i := 1; i < len(remaining); i++ {
			cost := walkDistance(current, remaining[i])
			if cost < bestCost || (cost == bestCost && sortKey(remaining[i]) < sortKey(remaining[bestIdx])) {
				bestIdx = i
				bestCost = cost
			}
		}

		next := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)

		seconds := int(bestCost / walkMetersPerSecond)
		route.Legs = append(route.Legs, RouteLeg{
			LocationID:     next.LocationID,
			Order:          len(route.Legs) + 1,
			DistanceMeters: bestCost,
			TravelSeconds:  seconds,
		})
		route.TotalSeconds += seconds
		current = next
	}

	return route, nil
}

// walkDistance 估算两个单元之间的步行距离（米）
func walkDistance(a, b *domain.Location) float64 {
	if a.Building != b.Building {
		return crossBuildingMeters + perFloorMeters*float64(floorNumber(a.Floor)+floorNumber(b.Floor)-2)
	}
	floorDiff := floorNumber(a.Floor) - floorNumber(b.Floor)
	if floorDiff < 0 {
		floorDiff = -floorDiff
	}
	return sameFloorMeters + perFloorMeters*float64(floorDiff)
}

// floorNumber 解析楼层标签（"1F"/"2F"/"B1" 等），无法解析时按 1 层处理
func floorNumber(floor string) int {
	s := strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(floor)), "F")
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return 1
}

// sortKey 平局裁决用的确定性排序键
func sortKey(l *domain.Location) string {
	return l.Building + "\x00" + l.Floor + "\x00" + l.LocationName + "\x00" + l.LocationID
}
