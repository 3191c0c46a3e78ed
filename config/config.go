package config

import (
	"encoding/json"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"production"` // development, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"floor-signin"`

	// 账号配置，格式：email:password,email:password
	Accounts string `env:"HULUXIA_ACCOUNTS"`

	// 通知配置
	NotifierType   string `env:"NOTIFIER_TYPE" envDefault:"none"` // none, wechat, email
	WechatRobotURL string `env:"WECHAT_ROBOT_URL"`
	EmailConfig    string `env:"EMAIL_CONFIG"` // JSON 字符串
	SMTPServer     string `env:"SMTP_SERVER" envDefault:"smtp.qq.com"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"465"`

	// 本地存储配置
	StoreBackend        string `env:"STORE_BACKEND" envDefault:"file"` // file, redis
	DeviceStorePath     string `env:"DEVICE_STORE_PATH" envDefault:"hlxconfig.json"`
	SessionStorePath    string `env:"SESSION_STORE_PATH" envDefault:"session.json"`
	SessionValidMinutes int    `env:"SESSION_VALID_MINUTES" envDefault:"60"`

	// Redis 配置，仅 STORE_BACKEND=redis 时使用
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"floor"`

	// 远端接口配置
	FloorBaseURL       string `env:"FLOOR_BASE_URL" envDefault:"https://floor.huluxia.com"`
	HTTPTimeoutSeconds int    `env:"HTTP_TIMEOUT_SECONDS" envDefault:"15"`
	CatalogFile        string `env:"CATALOG_FILE"` // 可选，YAML 版块列表

	// 节奏控制（秒）
	AccountDelayMin int `env:"ACCOUNT_DELAY_MIN" envDefault:"5"`
	AccountDelayMax int `env:"ACCOUNT_DELAY_MAX" envDefault:"10"`
	ForumDelayMin   int `env:"FORUM_DELAY_MIN" envDefault:"1"`
	ForumDelayMax   int `env:"FORUM_DELAY_MAX" envDefault:"3"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// OpenTelemetry 配置，默认关闭
	OtelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OtelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OtelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`
	ServiceVersion  string  `env:"SERVICE_VERSION" envDefault:"1.0.0"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`
}

// EmailSettings 对应 EMAIL_CONFIG 中的 JSON 内容
type EmailSettings struct {
	Username       string `json:"username"`
	Password       string `json:"auth_code_or_password"`
	SenderEmail    string `json:"sender_email"`
	RecipientEmail string `json:"recipient_email"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	validateConfig()
}

func validateConfig() {
	if Cfg.Accounts == "" {
		log.Printf("WARN: HULUXIA_ACCOUNTS is not set, nothing will be signed in")
	}

	if Cfg.NotifierType == "wechat" && Cfg.WechatRobotURL == "" {
		log.Printf("WARN: WECHAT_ROBOT_URL is not set, wechat notifier will not work")
	}

	if Cfg.NotifierType == "email" && Cfg.EmailConfig == "" {
		log.Printf("WARN: EMAIL_CONFIG is not set, email notifier will not work")
	}

	if Cfg.SessionValidMinutes <= 0 {
		log.Printf("WARN: SESSION_VALID_MINUTES must be positive, falling back to 60")
		Cfg.SessionValidMinutes = 60
	}

	if Cfg.AccountDelayMax < Cfg.AccountDelayMin {
		Cfg.AccountDelayMax = Cfg.AccountDelayMin
	}
	if Cfg.ForumDelayMax < Cfg.ForumDelayMin {
		Cfg.ForumDelayMax = Cfg.ForumDelayMin
	}

	if Cfg.OtelSampleRatio < 0 || Cfg.OtelSampleRatio > 1 {
		log.Printf("WARN: OTEL_SAMPLE_RATIO must be within [0, 1], falling back to 0.1")
		Cfg.OtelSampleRatio = 0.1
	}
}

// Email 解析 EMAIL_CONFIG，解析失败时返回空配置
func (c *Config) Email() (EmailSettings, error) {
	var s EmailSettings
	if c.EmailConfig == "" {
		return s, nil
	}
	if err := json.Unmarshal([]byte(c.EmailConfig), &s); err != nil {
		return EmailSettings{}, err
	}
	return s, nil
}

func (c *Config) SessionValidity() time.Duration {
	return time.Duration(c.SessionValidMinutes) * time.Minute
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) UseRedis() bool {
	return c.StoreBackend == "redis"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
