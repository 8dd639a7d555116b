// internal/common/config/config.go
package config

import (
	"fmt"
	"time"

	"assessment-workers/internal/assessment/maturity"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Assessment    AssessmentConfig        `mapstructure:"assessment"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Server        ServerConfig            `mapstructure:"server"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
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

// GetDSN returns the PostgreSQL connection string
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
	URL       string   `mapstructure:"url"` // single URL, used when addresses is empty
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// GetAddresses returns every configured node address.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Assessment Configuration ---

// AssessmentConfig points the engine at its reference tables. Empty paths
// select the embedded defaults.
type AssessmentConfig struct {
	CatalogPath   string       `mapstructure:"catalog_path"`
	BenchmarkPath string       `mapstructure:"benchmark_path"`
	DefaultSector string       `mapstructure:"default_sector"`
	MaturityBands []BandConfig `mapstructure:"maturity_bands"`
	ProgressTTL   int          `mapstructure:"progress_ttl"` // milliseconds
	ResultsIndex  string       `mapstructure:"results_index"`
	RegistryPath  string       `mapstructure:"registry_path"`
}

type BandConfig struct {
	Name        string  `mapstructure:"name"`
	Lower       float64 `mapstructure:"lower"`
	Description string  `mapstructure:"description"`
}

// Bands converts the configured maturity bands. nil means use the defaults.
func (a AssessmentConfig) Bands() []maturity.Band {
	if len(a.MaturityBands) == 0 {
		return nil
	}
	out := make([]maturity.Band, len(a.MaturityBands))
	for i, b := range a.MaturityBands {
		out[i] = maturity.Band{Name: b.Name, Lower: b.Lower, Description: b.Description}
	}
	return out
}

func (a AssessmentConfig) ProgressTTLDuration() time.Duration {
	return GetDuration(a.ProgressTTL)
}

// NotificationConfig holds settings for the notify-assessment-completed worker.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`

		// Endpoint points SNS and SES at a local stack, e.g. http://localstack:4566.
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"aws"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"ses"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ServerConfig is the health and metrics listener.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// TracingConfig enables span export. Spans stay in-process when
// JaegerEndpoint is empty.
type TracingConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
