// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration shared by the API server, the worker
// manager and the tools.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Chat          ChatConfig              `mapstructure:"chat"`
	Vision        VisionConfig            `mapstructure:"vision"`
	Storage       StorageConfig           `mapstructure:"storage"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	SessionCookie   string   `mapstructure:"session_cookie"`
	SessionTTL      int      `mapstructure:"session_ttl"` // seconds
	SecureCookies   bool     `mapstructure:"secure_cookies"`
	MaxUploadBytes  int64    `mapstructure:"max_upload_bytes"`
	TrustedProxies  []string `mapstructure:"trusted_proxies"`
	AdminIdentities []string `mapstructure:"admin_identities"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the lib/pq connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	MenuIndex string   `mapstructure:"menu_index"`
	Enabled   bool     `mapstructure:"enabled"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ChatConfig tunes the assistant.
type ChatConfig struct {
	// Seed for reply variant selection. Zero picks a time-based seed.
	Seed             int64  `mapstructure:"seed"`
	Selector         string `mapstructure:"selector"` // random | roundrobin | first
	RecentOrderLimit int    `mapstructure:"recent_order_limit"`
	PendingEditTTL   int    `mapstructure:"pending_edit_ttl"` // seconds, 0 disables the pending-edit store
	CartTTL          int    `mapstructure:"cart_ttl"`         // seconds
	Currency         string `mapstructure:"currency"`
	RequestTimeout   int    `mapstructure:"request_timeout"` // milliseconds
	MaxMessageLength int    `mapstructure:"max_message_length"`
	VisionMatchLimit int    `mapstructure:"vision_match_limit"`
}

type VisionConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

type StorageConfig struct {
	S3 struct {
		Enabled        bool   `mapstructure:"enabled"`
		Bucket         string `mapstructure:"bucket"`
		Region         string `mapstructure:"region"`
		Endpoint       string `mapstructure:"endpoint"`
		PublicBaseURL  string `mapstructure:"public_base_url"`
		KeyPrefix      string `mapstructure:"key_prefix"`
		ForcePathStyle bool   `mapstructure:"force_path_style"`
	} `mapstructure:"s3"`
}

type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// WorkerConfig holds the settings applicable to every workflow worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// PendingEditDuration returns the pending price-edit lifetime; zero means disabled.
func (c ChatConfig) PendingEditDuration() time.Duration {
	return time.Duration(c.PendingEditTTL) * time.Second
}

func (c ChatConfig) CartDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Second
}

func (h HTTPConfig) SessionDuration() time.Duration {
	return time.Duration(h.SessionTTL) * time.Second
}
