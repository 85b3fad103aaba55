package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Recommend RecommendConfig `mapstructure:"recommend"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | memory
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	SeedFile string `mapstructure:"seed_file"` // memory driver only
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort     string        `mapstructure:"host_port"`
	TaskQueue    string        `mapstructure:"task_queue"`
	WarmRegions  []string      `mapstructure:"warm_regions"`
	WarmInterval time.Duration `mapstructure:"warm_interval"`
}

// BreakerConfig tunes the circuit breaker in front of the data source.
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// RecommendConfig tunes the recommendation engine.
type RecommendConfig struct {
	MaxSpots         int      `mapstructure:"max_spots"`
	FallbackBaseline float64  `mapstructure:"fallback_baseline"`
	DefaultLat       float64  `mapstructure:"default_lat"`
	DefaultLng       float64  `mapstructure:"default_lng"`
	DefaultTags      []string `mapstructure:"default_tags"`
	MapMode          string   `mapstructure:"map_mode"`
	MapAppName       string   `mapstructure:"map_app_name"`
	StartLabel       string   `mapstructure:"start_label"`
	CacheTTL         int      `mapstructure:"cache_ttl"` // seconds
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "coursemate")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "coursemate")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.seed_file", "")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.task_queue", "coursemate-warmup")
	v.SetDefault("temporal.warm_regions", []string{"서울"})
	v.SetDefault("temporal.warm_interval", 30*time.Minute)
	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", time.Minute)
	v.SetDefault("breaker.timeout", 30*time.Second)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("recommend.max_spots", 3)
	v.SetDefault("recommend.fallback_baseline", 1.0)
	v.SetDefault("recommend.default_lat", 37.5665) // Seoul City Hall
	v.SetDefault("recommend.default_lng", 126.9780)
	v.SetDefault("recommend.default_tags", []string{"좋", "추천", "만족", "아이", "가족", "재미"})
	v.SetDefault("recommend.map_mode", "car")
	v.SetDefault("recommend.map_app_name", "")
	v.SetDefault("recommend.start_label", "내위치")
	v.SetDefault("recommend.cache_ttl", 600)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: COURSEMATE_DATABASE_HOST → database.host
	v.SetEnvPrefix("COURSEMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be postgres or memory, got %q", c.Database.Driver))
	}

	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Breaker.Enabled && c.Breaker.FailureThreshold == 0 {
		errs = append(errs, "breaker.failure_threshold must be positive")
	}

	r := c.Recommend
	if r.MaxSpots <= 0 {
		errs = append(errs, fmt.Sprintf("recommend.max_spots must be positive, got %d", r.MaxSpots))
	}
	if r.FallbackBaseline < 0 {
		errs = append(errs, "recommend.fallback_baseline must not be negative")
	}
	if r.DefaultLat < -90 || r.DefaultLat > 90 {
		errs = append(errs, fmt.Sprintf("recommend.default_lat out of range: %f", r.DefaultLat))
	}
	if r.DefaultLng < -180 || r.DefaultLng > 180 {
		errs = append(errs, fmt.Sprintf("recommend.default_lng out of range: %f", r.DefaultLng))
	}
	if len(r.DefaultTags) == 0 {
		errs = append(errs, "recommend.default_tags must not be empty")
	}
	if r.CacheTTL < 0 {
		errs = append(errs, "recommend.cache_ttl must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
