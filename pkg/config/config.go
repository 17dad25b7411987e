package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Session struct {
		MaxStreams int    `yaml:"max_streams"`
		Namespace  string `yaml:"namespace"`
	} `yaml:"session"`

	Compositor struct {
		Width        int    `yaml:"width"`
		Height       int    `yaml:"height"`
		FrameRate    int    `yaml:"frame_rate"`
		ShowLabels   bool   `yaml:"show_labels"`
		Watermark    string `yaml:"watermark"`
		ChromeHeight int    `yaml:"chrome_height"`
	} `yaml:"compositor"`

	Recording struct {
		OutputPath      string        `yaml:"output_path"`
		AutoSplit       bool          `yaml:"auto_split"`
		SplitDuration   time.Duration `yaml:"split_duration"`
		MaxDuration     time.Duration `yaml:"max_duration"`
		MinSegmentBytes int64         `yaml:"min_segment_bytes"`
		QuotaBytes      int64         `yaml:"quota_bytes"`
		TickInterval    time.Duration `yaml:"tick_interval"`
	} `yaml:"recording"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limiting"`

	Auth struct {
		Enabled   bool   `yaml:"enabled"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Server.ShutdownTimeout = 15 * time.Second

	cfg.Session.MaxStreams = 16
	cfg.Session.Namespace = "gridcast"

	cfg.Compositor.Width = 1920
	cfg.Compositor.Height = 1080
	cfg.Compositor.FrameRate = 30
	cfg.Compositor.ShowLabels = true
	cfg.Compositor.Watermark = "gridcast"
	cfg.Compositor.ChromeHeight = 0

	cfg.Recording.OutputPath = "recordings"
	cfg.Recording.AutoSplit = false
	cfg.Recording.SplitDuration = 30 * time.Minute
	cfg.Recording.MaxDuration = 0
	cfg.Recording.MinSegmentBytes = 10 * 1024 * 1024
	cfg.Recording.QuotaBytes = 10 * 1024 * 1024 * 1024
	cfg.Recording.TickInterval = time.Second

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "gridcast"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100

	cfg.Auth.Enabled = false
	cfg.Auth.JWTSecret = "change-me-in-production"

	return cfg
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.Session.MaxStreams <= 0 {
		return fmt.Errorf("session.max_streams must be > 0")
	}
	if c.Session.Namespace == "" {
		return fmt.Errorf("session.namespace must not be empty")
	}

	if c.Compositor.Width <= 0 || c.Compositor.Height <= 0 {
		return fmt.Errorf("compositor.width and height must be > 0")
	}
	if c.Compositor.FrameRate != 30 && c.Compositor.FrameRate != 60 {
		return fmt.Errorf("compositor.frame_rate must be 30 or 60")
	}
	if c.Compositor.ChromeHeight < 0 {
		return fmt.Errorf("compositor.chrome_height must be >= 0")
	}

	if c.Recording.OutputPath == "" {
		return fmt.Errorf("recording.output_path must not be empty")
	}
	if c.Recording.AutoSplit && c.Recording.SplitDuration <= 0 {
		return fmt.Errorf("recording.split_duration must be > 0 when auto_split=true")
	}
	if c.Recording.MaxDuration < 0 {
		return fmt.Errorf("recording.max_duration must be >= 0")
	}
	if c.Recording.MinSegmentBytes < 0 {
		return fmt.Errorf("recording.min_segment_bytes must be >= 0")
	}
	if c.Recording.TickInterval <= 0 {
		return fmt.Errorf("recording.tick_interval must be > 0")
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	if c.Tracing.Enabled {
		if c.Tracing.ServiceName == "" {
			return fmt.Errorf("tracing.service_name must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0,1]")
		}
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty when auth.enabled=true")
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("GRIDCAST_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("GRIDCAST_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("GRIDCAST_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
	if secret := os.Getenv("GRIDCAST_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
}
