package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"wisefido-rollcall/internal/cache"
	"wisefido-rollcall/internal/config"
	"wisefido-rollcall/internal/consumer"
	"wisefido-rollcall/internal/domain"
	"wisefido-rollcall/internal/engine"
	"wisefido-rollcall/internal/export"
	"wisefido-rollcall/internal/notifier"
	"wisefido-rollcall/internal/repository"
	"wisefido-rollcall/internal/routing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// RollCallService 点名服务（整合各层）
// 对外暴露两个独立入口：完整点名生成与批量占用人数查询
type RollCallService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  mqtt.Client
	logger      *zap.Logger
	tenantID    string

	// 各层组件
	locationsRepo   repository.LocationsRepository
	occupantsRepo   repository.OccupantsRepository
	schedulesRepo   repository.SchedulesRepository
	rollCallsRepo   repository.RollCallsRepository
	snapshotCache   *cache.SnapshotCache
	resolver        *engine.Resolver
	generator       *engine.Generator
	notifier        *notifier.Notifier
	requestConsumer *consumer.RequestConsumer
}

// NewRollCallService 创建点名服务
func NewRollCallService(cfg *config.Config, logger *zap.Logger, tenantID string) (*RollCallService, error) {
	// 1. 连接数据库
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxConns)
	}
	if cfg.Database.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdle)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 连接 MQTT（可选）
	var mqttClient mqtt.Client
	if cfg.MQTT.Enabled {
		opts := mqtt.NewClientOptions()
		opts.AddBroker(cfg.MQTT.Broker)
		opts.SetClientID(cfg.MQTT.ClientID)
		if cfg.MQTT.Username != "" {
			opts.SetUsername(cfg.MQTT.Username)
		}
		if cfg.MQTT.Password != "" {
			opts.SetPassword(cfg.MQTT.Password)
		}
		opts.SetAutoReconnect(true)
		opts.SetCleanSession(true)

		mqttClient = mqtt.NewClient(opts)
		if token := mqttClient.Connect(); token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
		}
	}

	// 4. 创建 Repository 层
	var locationsRepo repository.LocationsRepository = repository.NewPostgresLocationsRepository(db, logger)
	var occupantsRepo repository.OccupantsRepository = repository.NewPostgresOccupantsRepository(db, logger)
	schedulesRepo := repository.NewPostgresSchedulesRepository(db, logger)
	rollCallsRepo := repository.NewPostgresRollCallsRepository(db, logger)

	// 5. 快照缓存（可选；启用时包装全量快照查询）
	var snapshotCache *cache.SnapshotCache
	if cfg.RollCall.Cache.Enabled {
		snapshotCache = cache.NewSnapshotCache(redisClient, cfg.RollCall.Cache.KeyPrefix, logger)
		locationsRepo = cache.NewCachedLocationsRepository(locationsRepo, snapshotCache, logger)
		occupantsRepo = cache.NewCachedOccupantsRepository(occupantsRepo, snapshotCache, logger)
	}

	// 6. 路线优化器
	var optimizer routing.RouteOptimizer
	switch cfg.RollCall.Optimizer.Mode {
	case "http":
		optimizer = routing.NewHTTPOptimizer(
			cfg.RollCall.Optimizer.BaseURL,
			time.Duration(cfg.RollCall.Optimizer.TimeoutSeconds)*time.Second,
			logger,
		)
	default:
		optimizer = routing.NewNearestNeighborOptimizer()
	}

	// 7. 创建引擎层
	resolver := engine.NewResolver(locationsRepo, occupantsRepo, schedulesRepo, logger)
	generator := engine.NewGenerator(resolver, schedulesRepo, optimizer,
		cfg.RollCall.VerificationSeconds, logger)

	return &RollCallService{
		config:          cfg,
		db:              db,
		redisClient:     redisClient,
		mqttClient:      mqttClient,
		logger:          logger,
		tenantID:        tenantID,
		locationsRepo:   locationsRepo,
		occupantsRepo:   occupantsRepo,
		schedulesRepo:   schedulesRepo,
		rollCallsRepo:   rollCallsRepo,
		snapshotCache:   snapshotCache,
		resolver:        resolver,
		generator:       generator,
		notifier:        notifier.NewNotifier(cfg, redisClient, mqttClient, logger),
		requestConsumer: consumer.NewRequestConsumer(cfg, redisClient, logger, tenantID),
	}, nil
}

// Start 启动服务（消费点名生成请求，阻塞直至 ctx 取消）
func (s *RollCallService) Start(ctx context.Context) error {
	s.logger.Info("Starting roll call service",
		zap.String("tenant_id", s.tenantID),
		zap.String("optimizer_mode", s.config.RollCall.Optimizer.Mode),
		zap.Bool("cache_enabled", s.config.RollCall.Cache.Enabled),
	)
	return s.requestConsumer.Start(ctx, s)
}

// Stop 停止服务并释放连接
func (s *RollCallService) Stop() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect(250)
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database", zap.Error(err))
		}
	}
	s.logger.Info("Roll call service stopped")
}

// 确保实现了消费者的处理器接口
var _ consumer.GenerateHandler = (*RollCallService)(nil)

// GenerateRollCall 生成点名路线并落库、发布通知
func (s *RollCallService) GenerateRollCall(ctx context.Context, req engine.GenerateRequest) (*domain.GeneratedRollCall, error) {
	result, err := s.generator.Generate(ctx, s.tenantID, req)
	if err != nil {
		return nil, err
	}
	result.RollCallID = uuid.New().String()

	// 落库失败不阻断结果返回（记录是派生快照，可重新生成）
	snapshot, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("Failed to marshal roll call snapshot",
			zap.String("roll_call_id", result.RollCallID),
			zap.Error(err),
		)
	} else {
		record := &domain.RollCallRecord{
			RollCallID:  result.RollCallID,
			TenantID:    s.tenantID,
			GeneratedAt: result.GeneratedAt,
			Status:      "generated",
			Snapshot:    string(snapshot),
		}
		if _, err := s.rollCallsRepo.CreateRollCall(ctx, s.tenantID, record); err != nil {
			s.logger.Error("Failed to persist roll call",
				zap.String("roll_call_id", result.RollCallID),
				zap.Error(err),
			)
		}
	}

	s.notifier.NotifyGenerated(ctx, result)

	s.logger.Info("Roll call generated",
		zap.String("roll_call_id", result.RollCallID),
		zap.Int("total_locations", result.Totals.TotalLocations),
		zap.Int("occupied_locations", result.Totals.OccupiedLocations),
		zap.Int("expected_occupants", result.Totals.TotalExpectedOccupants),
		zap.Int("estimated_seconds", result.EstimatedDurationSeconds),
	)

	return result, nil
}

// BatchExpectedCounts 批量占用人数查询（供前端在生成前做实时预估）
func (s *RollCallService) BatchExpectedCounts(ctx context.Context, locationIDs []string, at time.Time) (map[string]int, error) {
	return s.resolver.BatchExpectedCounts(ctx, s.tenantID, locationIDs, at)
}

// CheckOccupant 单人零星核对：某人员某时刻是否应在默认单元
func (s *RollCallService) CheckOccupant(ctx context.Context, occupantID string, at time.Time) (bool, error) {
	occ, err := s.occupantsRepo.GetOccupant(ctx, s.tenantID, occupantID)
	if err != nil {
		return false, err
	}
	if occ.CellID == nil || *occ.CellID == "" {
		return false, domain.NewValidationError("cell_id",
			fmt.Sprintf("occupant %s has no default cell assignment", occupantID))
	}
	return s.resolver.IsAtDefault(ctx, s.tenantID, occupantID, *occ.CellID, at)
}

// ExportRollCallSheet 导出已生成点名的 Excel 清单
func (s *RollCallService) ExportRollCallSheet(ctx context.Context, rollCallID string) ([]byte, error) {
	record, err := s.rollCallsRepo.GetRollCall(ctx, s.tenantID, rollCallID)
	if err != nil {
		return nil, err
	}

	var result domain.GeneratedRollCall
	if err := json.Unmarshal([]byte(record.Snapshot), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roll call snapshot: %w", err)
	}
	return export.GenerateRollCallSheet(&result)
}

// InvalidateSnapshotCache 位置/人员数据变更后显式失效快照缓存
func (s *RollCallService) InvalidateSnapshotCache(ctx context.Context) error {
	if s.snapshotCache == nil {
		return nil
	}
	return s.snapshotCache.Invalidate(ctx, s.tenantID)
}
