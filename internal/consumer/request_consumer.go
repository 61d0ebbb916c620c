package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wisefido-rollcall/internal/config"
	"wisefido-rollcall/internal/domain"
	"wisefido-rollcall/internal/engine"
	"wisefido-rollcall/internal/streams"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// GenerateHandler 点名生成处理器（由 service 层实现）
type GenerateHandler interface {
	GenerateRollCall(ctx context.Context, req engine.GenerateRequest) (*domain.GeneratedRollCall, error)
}

// RequestConsumer 点名请求消费者
// 从 Redis Streams 读取生成请求并触发生成；结果由 notifier 发布
type RequestConsumer struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
	tenantID    string
}

// NewRequestConsumer 创建请求消费者
func NewRequestConsumer(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger, tenantID string) *RequestConsumer {
	return &RequestConsumer{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
		tenantID:    tenantID,
	}
}

// generateRequest 流上的生成请求载荷
type generateRequest struct {
	LocationIDs  []string `json:"location_ids"`
	At           string   `json:"at"` // RFC3339
	IncludeEmpty bool     `json:"include_empty"`
}

// Start 启动消费循环（阻塞直至 ctx 取消）
func (c *RequestConsumer) Start(ctx context.Context, handler GenerateHandler) error {
	streamName := c.config.RollCall.Streams.RequestStream
	group := c.config.RollCall.Streams.ConsumerGroup

	if err := streams.EnsureGroup(ctx, c.redisClient, streamName, group); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	c.logger.Info("Roll call request consumer started",
		zap.String("tenant_id", c.tenantID),
		zap.String("stream", streamName),
		zap.String("group", group),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Roll call request consumer stopped")
			return nil
		default:
		}

		messages, err := streams.ReadGroup(ctx, c.redisClient, streamName, group,
			c.config.RollCall.Streams.ConsumerName,
			int64(c.config.RollCall.Streams.PollBatchSize))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to read request stream",
				zap.Error(err),
			)
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			c.handleMessage(ctx, handler, streamName, group, msg)
		}
	}
}

// handleMessage 处理单条生成请求
// 校验类错误直接确认丢弃（重试无意义）；内部错误不确认，留待重投
func (c *RequestConsumer) handleMessage(ctx context.Context, handler GenerateHandler, stream, group string, msg streams.Message) {
	data, ok := msg.Values["data"].(string)
	if !ok {
		c.logger.Warn("Request message without data field",
			zap.String("message_id", msg.ID),
		)
		c.ack(ctx, stream, group, msg.ID)
		return
	}

	var req generateRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		c.logger.Warn("Malformed roll call request",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		c.ack(ctx, stream, group, msg.ID)
		return
	}

	at, err := time.Parse(time.RFC3339, req.At)
	if err != nil {
		c.logger.Warn("Unresolvable instant in roll call request",
			zap.String("message_id", msg.ID),
			zap.String("at", req.At),
			zap.Error(err),
		)
		c.ack(ctx, stream, group, msg.ID)
		return
	}

	result, err := handler.GenerateRollCall(ctx, engine.GenerateRequest{
		LocationIDs:  req.LocationIDs,
		At:           at,
		IncludeEmpty: req.IncludeEmpty,
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			c.logger.Warn("Roll call request rejected",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			c.ack(ctx, stream, group, msg.ID)
			return
		}
		// 内部错误：不确认消息，等待重投
		c.logger.Error("Roll call generation failed",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return
	}

	c.logger.Info("Roll call generated from stream request",
		zap.String("message_id", msg.ID),
		zap.String("roll_call_id", result.RollCallID),
		zap.Int("stops", len(result.Stops)),
	)
	c.ack(ctx, stream, group, msg.ID)
}

func (c *RequestConsumer) ack(ctx context.Context, stream, group, id string) {
	if err := streams.Ack(ctx, c.redisClient, stream, group, id); err != nil {
		c.logger.Error("Failed to ack request message",
			zap.String("message_id", id),
			zap.Error(err),
		)
	}
}
