package conf

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/devricklin/feishu-media-bridge/internal/biz/usecase"
)

// Role identifies which process is loading the configuration
type Role string

const (
	RoleDispatcher Role = "dispatcher"
	RoleNode       Role = "node"
	RoleRest       Role = "rest"
	RoleConverter  Role = "converter"
	RoleMCP        Role = "convert-mcp"
)

// Config represents application configuration.
// It is built once at process start and passed by pointer.
type Config struct {
	// Feishu configuration
	Feishu FeishuConfig

	// SQLite database
	Database DatabaseConfig

	// Kafka broker and consumer pools
	Kafka KafkaConfig

	// Token obfuscation
	HashID HashIDConfig

	// Retrieval and activation service
	Rest RestConfig

	// Conversion service
	Converter ConverterConfig

	// Activation mail
	Mail MailConfig

	// Prometheus endpoint for processes without an HTTP API
	MetricsAddr string

	// Reply texts (defaults merged with MESSAGES_CONFIG_PATH)
	Replies usecase.Replies

	// Debug mode
	Debug bool
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path string
}

// KafkaConfig contains broker configuration
type KafkaConfig struct {
	Brokers []string
	GroupID string
	Workers int // consumer goroutines per topic
}

// HashIDConfig contains token obfuscation configuration
type HashIDConfig struct {
	Salt      string
	MinLength int
}

// RestConfig contains retrieval service configuration
type RestConfig struct {
	Addr    string
	BaseURL string // public base used to build download and activation links
}

// ConverterConfig contains conversion service configuration
type ConverterConfig struct {
	Addr        string
	URL         string // base URL the node and MCP server call
	TmpDir      string
	FFmpegPath  string
	SofficePath string
}

// MailConfig contains SMTP configuration
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".feishu-media", "bridge.db")
	}

	replies, err := LoadReplies(os.Getenv("MESSAGES_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			GroupID: getEnv("KAFKA_GROUP_ID", "feishu-media-bridge"),
			Workers: getEnvInt("QUEUE_WORKERS", 4),
		},
		HashID: HashIDConfig{
			Salt:      os.Getenv("HASHID_SALT"),
			MinLength: getEnvInt("HASHID_MIN_LENGTH", 10),
		},
		Rest: RestConfig{
			Addr:    getEnv("REST_ADDR", ":8086"),
			BaseURL: strings.TrimRight(getEnv("REST_BASE_URL", "http://localhost:8086"), "/"),
		},
		Converter: ConverterConfig{
			Addr:        getEnv("CONVERTER_ADDR", ":8090"),
			URL:         strings.TrimRight(getEnv("CONVERTER_URL", "http://localhost:8090"), "/"),
			TmpDir:      getEnv("CONVERTER_TMP_DIR", os.TempDir()),
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			SofficePath: getEnv("SOFFICE_PATH", "soffice"),
		},
		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("MAIL_FROM"),
		},
		MetricsAddr: getEnv("METRICS_ADDR", ":9100"),
		Replies:     replies,
		Debug:       os.Getenv("DEBUG") == "true",
	}, nil
}

// Validate validates the configuration for one process role
func (c *Config) Validate(role Role) error {
	switch role {
	case RoleDispatcher:
		if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
			return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
		}
		if len(c.Kafka.Brokers) == 0 {
			return &ConfigError{Field: "KAFKA_BROKERS", Message: "required"}
		}
	case RoleNode:
		if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
			return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
		}
		if len(c.Kafka.Brokers) == 0 {
			return &ConfigError{Field: "KAFKA_BROKERS", Message: "required"}
		}
		if c.HashID.Salt == "" {
			return &ConfigError{Field: "HASHID_SALT", Message: "required"}
		}
		if c.Kafka.Workers <= 0 {
			return &ConfigError{Field: "QUEUE_WORKERS", Message: "must be positive"}
		}
		if c.Mail.Host == "" || c.Mail.From == "" {
			return &ConfigError{Field: "SMTP_HOST/MAIL_FROM", Message: "required"}
		}
	case RoleRest:
		if c.HashID.Salt == "" {
			return &ConfigError{Field: "HASHID_SALT", Message: "required"}
		}
	case RoleConverter:
		if c.Converter.TmpDir == "" {
			return &ConfigError{Field: "CONVERTER_TMP_DIR", Message: "required"}
		}
	case RoleMCP:
		if c.Converter.URL == "" {
			return &ConfigError{Field: "CONVERTER_URL", Message: "required"}
		}
	}
	return nil
}

// NewLogger creates the process logger
func (c *Config) NewLogger(role Role) *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", string(role)))
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
