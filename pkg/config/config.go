package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks configuration that cannot start the service.
var ErrConfiguration = errors.New("configuration error")

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"5000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Logger struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logger"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Cache struct {
		RealtimeTTL   time.Duration `yaml:"realtime_ttl" default:"30s"`
		MarketTTL     time.Duration `yaml:"market_ttl" default:"60s"`
		SearchTTL     time.Duration `yaml:"search_ttl" default:"1h"`
		HistoricalTTL time.Duration `yaml:"historical_ttl" default:"1h"`
		SweepInterval time.Duration `yaml:"sweep_interval" default:"5m"`
	} `yaml:"cache"`
	Retry struct {
		MaxAttempts int           `yaml:"max_attempts" default:"3"`
		BaseDelay   time.Duration `yaml:"base_delay" default:"500ms"`
		MaxDelay    time.Duration `yaml:"max_delay" default:"5s"`
		Jitter      float64       `yaml:"jitter" default:"0.5"`
		// Budget bounds the whole live path of one resolution, attempts and fan-out included.
		Budget time.Duration `yaml:"budget" default:"20s"`
	} `yaml:"retry"`
	Upstream struct {
		Timeout     time.Duration `yaml:"timeout" default:"10s"`
		CourtesyMin time.Duration `yaml:"courtesy_min" default:"100ms"`
		CourtesyMax time.Duration `yaml:"courtesy_max" default:"500ms"`
		RateLimit   float64       `yaml:"rate_limit" default:"5"`
		RateBurst   int           `yaml:"rate_burst" default:"5"`
		Concurrency int           `yaml:"concurrency" default:"4"`
		SearchURL   string        `yaml:"search_url" default:"https://query2.finance.yahoo.com/v1/finance/search"`
		SummaryURL  string        `yaml:"summary_url" default:"https://query2.finance.yahoo.com/v10/finance/quoteSummary"`
		UserAgent   string        `yaml:"user_agent" default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"`
		Timezone    string        `yaml:"timezone" default:"America/New_York"`
	} `yaml:"upstream"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled" default:"true"`
		Capacity     float64 `yaml:"capacity" default:"30"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"10"`
	} `yaml:"ratelimit"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Host     string        `yaml:"host" default:"localhost"`
		Port     int           `yaml:"port" default:"6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix" default:"stockpulse"`
		TTL      time.Duration `yaml:"ttl" default:"24h"`
		PoolSize int           `yaml:"pool_size" default:"10"`
		MinIdle  int           `yaml:"min_idle" default:"2"`
		Dial     time.Duration `yaml:"dial_timeout" default:"2s"`
	} `yaml:"redis"`
}

// Default returns a configuration populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. Missing keys keep their defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT %q is not a number", ErrConfiguration, v)
		}
		c.Server.Port = p
	}
	if v := getenv("DEBUG"); strings.EqualFold(v, "true") {
		c.Logger.Level = "debug"
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := getenv("UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: UPSTREAM_TIMEOUT: %v", ErrConfiguration, err)
		}
		c.Upstream.Timeout = d
	}
	if v := getenv("REDIS_ENABLED"); v != "" {
		c.Redis.Enabled = strings.EqualFold(v, "true")
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, found := strings.Cut(v, ":")
		c.Redis.Host = host
		if found {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("%w: REDIS_ADDR %q has a bad port", ErrConfiguration, v)
			}
			c.Redis.Port = p
		}
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("%w: environment is required", ErrConfiguration)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range: %d", ErrConfiguration, c.Server.Port)
	}
	if c.Cache.RealtimeTTL <= 0 || c.Cache.MarketTTL <= 0 || c.Cache.SearchTTL <= 0 || c.Cache.HistoricalTTL <= 0 {
		return fmt.Errorf("%w: cache ttls must be positive", ErrConfiguration)
	}
	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("%w: cache.sweep_interval must be positive", ErrConfiguration)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be >= 1", ErrConfiguration)
	}
	if c.Retry.Budget <= 0 {
		return fmt.Errorf("%w: retry.budget must be positive", ErrConfiguration)
	}
	if c.Server.WriteTimeout > 0 && c.Retry.Budget >= c.Server.WriteTimeout {
		return fmt.Errorf("%w: retry.budget %s must be below server.write_timeout %s",
			ErrConfiguration, c.Retry.Budget, c.Server.WriteTimeout)
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter >= 1 {
		return fmt.Errorf("%w: retry.jitter must be in [0,1)", ErrConfiguration)
	}
	if c.Upstream.CourtesyMin < 0 || c.Upstream.CourtesyMax < c.Upstream.CourtesyMin {
		return fmt.Errorf("%w: upstream courtesy delay range is invalid", ErrConfiguration)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("%w: upstream.timeout must be positive", ErrConfiguration)
	}
	if c.Upstream.Concurrency < 1 {
		return fmt.Errorf("%w: upstream.concurrency must be >= 1", ErrConfiguration)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("%w: redis.host is required when redis is enabled", ErrConfiguration)
	}
	return nil
}
