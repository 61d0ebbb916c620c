package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"wisefido-rollcall/internal/config"
	"wisefido-rollcall/internal/domain"
	"wisefido-rollcall/internal/streams"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Notifier 点名结果通知器
// 生成完成后把结果摘要发布到 Redis Streams（服务间）与 MQTT（执勤终端）。
// 通知失败只记日志，不影响生成调用本身
type Notifier struct {
	config      *config.Config
	redisClient *redis.Client
	mqttClient  mqtt.Client // 未启用 MQTT 时为 nil
	logger      *zap.Logger
}

// NewNotifier 创建通知器
func NewNotifier(cfg *config.Config, redisClient *redis.Client, mqttClient mqtt.Client, logger *zap.Logger) *Notifier {
	return &Notifier{
		config:      cfg,
		redisClient: redisClient,
		mqttClient:  mqttClient,
		logger:      logger,
	}
}

// rollCallNotice 通知载荷（摘要，不含完整停靠点明细）
type rollCallNotice struct {
	RollCallID             string `json:"roll_call_id"`
	TenantID               string `json:"tenant_id"`
	GeneratedAt            string `json:"generated_at"`
	TotalLocations         int    `json:"total_locations"`
	OccupiedLocations      int    `json:"occupied_locations"`
	TotalExpectedOccupants int    `json:"total_expected_occupants"`
	EstimatedSeconds       int    `json:"estimated_seconds"`
}

// NotifyGenerated 发布点名生成通知（尽力而为）
func (n *Notifier) NotifyGenerated(ctx context.Context, result *domain.GeneratedRollCall) {
	notice := rollCallNotice{
		RollCallID:             result.RollCallID,
		TenantID:               result.TenantID,
		GeneratedAt:            result.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		TotalLocations:         result.Totals.TotalLocations,
		OccupiedLocations:      result.Totals.OccupiedLocations,
		TotalExpectedOccupants: result.Totals.TotalExpectedOccupants,
		EstimatedSeconds:       result.EstimatedDurationSeconds,
	}

	if n.redisClient != nil {
		if _, err := streams.PublishJSON(ctx, n.redisClient, n.config.RollCall.Streams.ResultStream, notice); err != nil {
			n.logger.Error("Failed to publish roll call to result stream",
				zap.String("roll_call_id", result.RollCallID),
				zap.Error(err),
			)
		}
	}

	if n.mqttClient != nil {
		payload, err := json.Marshal(notice)
		if err != nil {
			n.logger.Error("Failed to marshal roll call notice",
				zap.String("roll_call_id", result.RollCallID),
				zap.Error(err),
			)
			return
		}
		topic := fmt.Sprintf("%s/%s/generated", n.config.RollCall.NotifyTopicPrefix, result.TenantID)
		token := n.mqttClient.Publish(topic, n.config.MQTT.QoS, false, payload)
		token.Wait()
		if token.Error() != nil {
			n.logger.Error("Failed to publish roll call to MQTT",
				zap.String("roll_call_id", result.RollCallID),
				zap.String("topic", topic),
				zap.Error(token.Error()),
			)
		}
	}
}
