package config

import (
	"fmt"
	"os"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Config 点名服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 点名服务特定配置
	RollCall struct {
		// 单人核验耗时（秒）——策略值，参与预计总耗时计算
		VerificationSeconds int

		// 路线优化器配置
		Optimizer struct {
			Mode           string // "local"（进程内近邻） 或 "http"（远端服务）
			BaseURL        string // http 模式的服务地址
			TimeoutSeconds int    // http 模式的请求超时（秒）
		}

		// 快照缓存配置（显式失效，不设 TTL）
		Cache struct {
			Enabled   bool
			KeyPrefix string // 如 "rollcall:snapshot:"
		}

		// Redis Streams 配置
		Streams struct {
			RequestStream  string // 点名生成请求流
			ResultStream   string // 生成结果发布流
			ConsumerGroup  string
			ConsumerName   string
			PollBatchSize  int
		}

		// MQTT 通知主题前缀，如 "rollcall/{tenant_id}/generated"
		NotifyTopicPrefix string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "rollcall")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-rollcall")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	// 点名服务配置
	cfg.RollCall.VerificationSeconds = getEnvInt("ROLLCALL_VERIFICATION_SECONDS", 30)

	cfg.RollCall.Optimizer.Mode = getEnv("ROLLCALL_OPTIMIZER_MODE", "local")
	cfg.RollCall.Optimizer.BaseURL = getEnv("ROLLCALL_OPTIMIZER_URL", "")
	cfg.RollCall.Optimizer.TimeoutSeconds = getEnvInt("ROLLCALL_OPTIMIZER_TIMEOUT", 10)

	cfg.RollCall.Cache.Enabled = getEnv("ROLLCALL_CACHE_ENABLED", "false") == "true"
	cfg.RollCall.Cache.KeyPrefix = getEnv("ROLLCALL_CACHE_PREFIX", "rollcall:snapshot:")

	cfg.RollCall.Streams.RequestStream = getEnv("ROLLCALL_REQUEST_STREAM", "rollcall:requests")
	cfg.RollCall.Streams.ResultStream = getEnv("ROLLCALL_RESULT_STREAM", "rollcall:generated")
	cfg.RollCall.Streams.ConsumerGroup = getEnv("ROLLCALL_CONSUMER_GROUP", "rollcall-generators")
	cfg.RollCall.Streams.ConsumerName = getEnv("ROLLCALL_CONSUMER_NAME", "rollcall-1")
	cfg.RollCall.Streams.PollBatchSize = getEnvInt("ROLLCALL_POLL_BATCH_SIZE", 10)

	cfg.RollCall.NotifyTopicPrefix = getEnv("ROLLCALL_NOTIFY_TOPIC_PREFIX", "rollcall")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.RollCall.Optimizer.Mode == "http" && cfg.RollCall.Optimizer.BaseURL == "" {
		return nil, fmt.Errorf("ROLLCALL_OPTIMIZER_URL is required when optimizer mode is http")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			return n
		}
	}
	return defaultValue
}
