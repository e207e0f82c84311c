package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Exchange struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"exchange"`
	Candles struct {
		BaseURL  string        `yaml:"base_url"`
		Period   string        `yaml:"period"`
		Limit    int           `yaml:"limit"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"candles"`
	Forecast struct {
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Horizon  string        `yaml:"horizon"`
		Cooldown time.Duration `yaml:"cooldown"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"forecast"`
	Cache struct {
		TokensTTL       time.Duration `yaml:"tokens_ttl"`
		MarketsTTL      time.Duration `yaml:"markets_ttl"`
		PositionsTTL    time.Duration `yaml:"positions_ttl"`
		PositionInfoTTL time.Duration `yaml:"position_info_ttl"`
		VolatilityTTL   time.Duration `yaml:"volatility_ttl"`
		BoundsTTL       time.Duration `yaml:"bounds_ttl"`
	} `yaml:"cache"`
	Snapshots struct {
		Path      string        `yaml:"path"`
		Retention time.Duration `yaml:"retention"`
		Assets    []string      `yaml:"assets"`
	} `yaml:"snapshots"`
	Archive struct {
		Type  string `yaml:"type"` // none, kafka, clickhouse
		Kafka struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port"`
			Database     string        `yaml:"database"`
			Table        string        `yaml:"table"`
			User         string        `yaml:"user"`
			Password     string        `yaml:"password"`
			UseHTTP      bool          `yaml:"use_http"`
			DialTimeout  time.Duration `yaml:"dial_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"clickhouse"`
	} `yaml:"archive"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Validation runs after the overrides so secrets may come from
// the environment alone.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FORECAST_API_KEY"); v != "" {
		c.Forecast.APIKey = v
	}
	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		c.Snapshots.Path = v
	}
	if v := os.Getenv("SNAPSHOT_ASSETS"); v != "" {
		c.Snapshots.Assets = strings.Split(v, ",")
	}
	if v := os.Getenv("ARCHIVE_BACKEND"); v != "" {
		c.Archive.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Archive.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Candles.Period == "" {
		c.Candles.Period = "1h"
	}
	if c.Candles.Limit == 0 {
		c.Candles.Limit = 168
	}
	if c.Candles.CacheTTL == 0 {
		c.Candles.CacheTTL = time.Minute
	}
	if c.Forecast.Horizon == "" {
		c.Forecast.Horizon = "24h"
	}
	if c.Forecast.Cooldown == 0 {
		c.Forecast.Cooldown = 10 * time.Second
	}
	if c.Cache.TokensTTL == 0 {
		c.Cache.TokensTTL = time.Minute
	}
	if c.Cache.MarketsTTL == 0 {
		c.Cache.MarketsTTL = time.Minute
	}
	if c.Cache.PositionsTTL == 0 {
		c.Cache.PositionsTTL = 30 * time.Second
	}
	if c.Cache.PositionInfoTTL == 0 {
		c.Cache.PositionInfoTTL = 30 * time.Second
	}
	if c.Cache.VolatilityTTL == 0 {
		c.Cache.VolatilityTTL = 5 * time.Minute
	}
	if c.Cache.BoundsTTL == 0 {
		c.Cache.BoundsTTL = 15 * time.Minute
	}
	if c.Snapshots.Path == "" {
		c.Snapshots.Path = "data/snapshots.json"
	}
	if c.Snapshots.Retention == 0 {
		c.Snapshots.Retention = 7 * 24 * time.Hour
	}
	if len(c.Snapshots.Assets) == 0 {
		c.Snapshots.Assets = []string{"BTC", "ETH"}
	}
	if c.Archive.Type == "" {
		c.Archive.Type = "none"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Archive.Type {
	case "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("archive.type must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Archive.Type)
	}
	if c.Archive.Type == "kafka" && len(c.Archive.Kafka.Brokers) == 0 {
		return fmt.Errorf("archive.kafka.brokers cannot be empty")
	}
	if c.Archive.Type == "clickhouse" && c.Archive.ClickHouse.Host == "" {
		return fmt.Errorf("archive.clickhouse.host is required")
	}
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("exchange.base_url is required")
	}
	if c.Forecast.BaseURL == "" {
		return fmt.Errorf("forecast.base_url is required")
	}
	if c.Forecast.APIKey == "" {
		return fmt.Errorf("forecast.api_key is required")
	}
	return nil
}
