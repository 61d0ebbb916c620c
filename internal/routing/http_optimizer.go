package routing

import (
	"context"
	"fmt"
	"time"

	"wisefido-rollcall/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// optimizeRequest 远端优化器请求
type optimizeRequest struct {
	Stops []optimizeStop `json:"stops"`
}

type optimizeStop struct {
	LocationID string `json:"location_id"`
	Building   string `json:"building"`
	Floor      string `json:"floor"`
}

// optimizeResponse 远端优化器响应
type optimizeResponse struct {
	Legs         []RouteLeg `json:"legs"`
	TotalSeconds int        `json:"total_seconds"`
}

// HTTPOptimizer 远端路线优化器客户端
// 超时/失败按可重试的内部错误处理，绝不静默退回无序路线
type HTTPOptimizer struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPOptimizer 创建远端优化器客户端
func NewHTTPOptimizer(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPOptimizer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPOptimizer{
		httpClient: client,
		logger:     logger,
	}
}

var _ RouteOptimizer = (*HTTPOptimizer)(nil)

// ComputeRoute 调用远端优化器计算路线
func (o *HTTPOptimizer) ComputeRoute(ctx context.Context, stops []*domain.Location) (*OrderedRoute, error) {
	if len(stops) == 0 {
		return &OrderedRoute{Legs: []RouteLeg{}}, nil
	}

	req := optimizeRequest{Stops: make([]optimizeStop, 0, len(stops))}
	for _, s := range stops {
		req.Stops = append(req.Stops, optimizeStop{
			LocationID: s.LocationID,
			Building:   s.Building,
			Floor:      s.Floor,
		})
	}

	var result optimizeResponse
	resp, err := o.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/api/route/optimize")
	if err != nil {
		return nil, fmt.Errorf("route optimizer request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("route optimizer returned status %d", resp.StatusCode())
	}

	if len(result.Legs) != len(stops) {
		return nil, fmt.Errorf("route optimizer returned %d legs for %d stops", len(result.Legs), len(stops))
	}

	o.logger.Debug("Remote route computed",
		zap.Int("stops", len(stops)),
		zap.Int("total_seconds", result.TotalSeconds),
	)

	return &OrderedRoute{Legs: result.Legs, TotalSeconds: result.TotalSeconds}, nil
}
