// ABOUTME: Runtime settings loaded from environment variables with defaults
// ABOUTME: Covers worker pool, backoff, browser, storage, notifier and HTTP knobs
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ad-monitor/retry"
)

type Settings struct {
	ConfigPath string          `json:"config_path" env:"AD_MONITOR_CONFIG" default:"config.json"`
	Server     ServerSettings  `json:"server"`
	Worker     WorkerSettings  `json:"worker"`
	Backoff    BackoffSettings `json:"backoff"`
	Browser    BrowserSettings `json:"browser"`
	Store      StoreSettings   `json:"store"`
	Notifier   NotifierConfig  `json:"notifier"`
	RateLimit  RateLimitConfig `json:"rate_limit"`
	Feed       FeedSettings    `json:"feed"`
	Metrics    MetricsConfig   `json:"metrics"`
	LogLevel   string          `json:"log_level" env:"LOG_LEVEL" default:"info"`
}

type ServerSettings struct {
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	WatchConfig     bool          `json:"watch_config" env:"SERVER_WATCH_CONFIG" default:"true"`
}

type WorkerSettings struct {
	PoolSize  int           `json:"pool_size" env:"WORKER_POOL_SIZE" default:"3"`
	JitterMin time.Duration `json:"jitter_min" env:"WORKER_JITTER_MIN" default:"2s"`
	JitterMax time.Duration `json:"jitter_max" env:"WORKER_JITTER_MAX" default:"10s"`
}

type BackoffSettings struct {
	InitialInterval     time.Duration `json:"initial_interval" env:"BACKOFF_INITIAL_INTERVAL" default:"500ms"`
	MaxInterval         time.Duration `json:"max_interval" env:"BACKOFF_MAX_INTERVAL" default:"60s"`
	MaxElapsedTime      time.Duration `json:"max_elapsed_time" env:"BACKOFF_MAX_ELAPSED_TIME" default:"60s"`
	Multiplier          float64       `json:"multiplier" env:"BACKOFF_MULTIPLIER" default:"1.5"`
	RandomizationFactor float64       `json:"randomization_factor" env:"BACKOFF_RANDOMIZATION_FACTOR" default:"0.5"`
}

type BrowserSettings struct {
	// ControlURL is a DevTools websocket URL or a rod launcher manager URL (ws://host:7317).
	ControlURL  string        `json:"control_url" env:"BROWSER_CONTROL_URL" default:"ws://localhost:9222"`
	UseLauncher bool          `json:"use_launcher" env:"BROWSER_USE_LAUNCHER" default:"false"`
	PageTimeout time.Duration `json:"page_timeout" env:"BROWSER_PAGE_TIMEOUT" default:"30s"`
	ReadySelect string        `json:"ready_selector" env:"BROWSER_READY_SELECTOR" default:"a[href^='/marketplace/item/']"`
	ReadyWait   time.Duration `json:"ready_wait" env:"BROWSER_READY_WAIT" default:"10s"`
	UserAgents  []string      `json:"user_agents" env:"BROWSER_USER_AGENTS"`
}

type StoreSettings struct {
	// Driver selects the dedup store: "sqlite" uses the database_name file, "postgres" uses DSN.
	Driver      string        `json:"driver" env:"STORE_DRIVER" default:"sqlite"`
	PostgresDSN string        `json:"-" env:"STORE_POSTGRES_DSN"`
	MaxConns    int           `json:"max_conns" env:"STORE_MAX_CONNS" default:"10"`
	ConnTimeout time.Duration `json:"conn_timeout" env:"STORE_CONN_TIMEOUT" default:"10s"`
}

type NotifierConfig struct {
	Enabled  bool   `json:"enabled" env:"NOTIFIER_ENABLED" default:"false"`
	RedisURL string `json:"-" env:"NOTIFIER_REDIS_URL" default:"redis://localhost:6379/0"`
	Stream   string `json:"stream" env:"NOTIFIER_STREAM" default:"ad-monitor:listings"`
	MaxLen   int64  `json:"max_len" env:"NOTIFIER_MAX_LEN" default:"10000"`
}

type RateLimitConfig struct {
	Enabled           bool          `json:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int           `json:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"60"`
	Burst             int           `json:"burst" env:"RATE_LIMIT_BURST" default:"10"`
	CleanupInterval   time.Duration `json:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" default:"5m"`
}

type FeedSettings struct {
	CacheTTL  time.Duration `json:"cache_ttl" env:"FEED_CACHE_TTL" default:"1m"`
	CacheSize int           `json:"cache_size" env:"FEED_CACHE_SIZE" default:"8"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" env:"METRICS_ENABLED" default:"true"`
	Path    string `json:"path" env:"METRICS_PATH" default:"/metrics"`
}

// DefaultConfigPath is used when neither --config nor AD_MONITOR_CONFIG is set.
const DefaultConfigPath = "config.json"

func defaultSettings() *Settings {
	return &Settings{
		ConfigPath: DefaultConfigPath,
		Server: ServerSettings{
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			WatchConfig:     true,
		},
		Worker: WorkerSettings{
			PoolSize:  3,
			JitterMin: 2 * time.Second,
			JitterMax: 10 * time.Second,
		},
		Backoff: BackoffSettings{
			InitialInterval:     500 * time.Millisecond,
			MaxInterval:         60 * time.Second,
			MaxElapsedTime:      60 * time.Second,
			Multiplier:          1.5,
			RandomizationFactor: 0.5,
		},
		Browser: BrowserSettings{
			ControlURL:  "ws://localhost:9222",
			PageTimeout: 30 * time.Second,
			ReadySelect: "a[href^='/marketplace/item/']",
			ReadyWait:   10 * time.Second,
			UserAgents:  DefaultUserAgents(),
		},
		Store: StoreSettings{
			Driver:      "sqlite",
			MaxConns:    10,
			ConnTimeout: 10 * time.Second,
		},
		Notifier: NotifierConfig{
			Enabled:  false,
			RedisURL: "redis://localhost:6379/0",
			Stream:   "ad-monitor:listings",
			MaxLen:   10000,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			Burst:             10,
			CleanupInterval:   5 * time.Minute,
		},
		Feed: FeedSettings{
			CacheTTL:  time.Minute,
			CacheSize: 8,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		LogLevel: "info",
	}
}

// LoadSettings builds the runtime settings from defaults and environment overrides.
func LoadSettings() (*Settings, error) {
	settings := defaultSettings()

	if err := loadSettingsFromEnv(settings); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateSettings(settings); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}

	return settings, nil
}

func loadSettingsFromEnv(s *Settings) error {
	if v := os.Getenv("AD_MONITOR_CONFIG"); v != "" {
		s.ConfigPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		s.LogLevel = strings.ToLower(v)
	}

	if err := loadServerSettings(&s.Server); err != nil {
		return fmt.Errorf("failed to load server settings: %w", err)
	}
	if err := loadWorkerSettings(&s.Worker); err != nil {
		return fmt.Errorf("failed to load worker settings: %w", err)
	}
	if err := loadBackoffSettings(&s.Backoff); err != nil {
		return fmt.Errorf("failed to load backoff settings: %w", err)
	}
	if err := loadBrowserSettings(&s.Browser); err != nil {
		return fmt.Errorf("failed to load browser settings: %w", err)
	}
	if err := loadStoreSettings(&s.Store); err != nil {
		return fmt.Errorf("failed to load store settings: %w", err)
	}
	if err := loadNotifierConfig(&s.Notifier); err != nil {
		return fmt.Errorf("failed to load notifier config: %w", err)
	}
	if err := loadRateLimitConfig(&s.RateLimit); err != nil {
		return fmt.Errorf("failed to load rate limit config: %w", err)
	}
	if err := loadFeedSettings(&s.Feed); err != nil {
		return fmt.Errorf("failed to load feed settings: %w", err)
	}
	if err := loadMetricsConfig(&s.Metrics); err != nil {
		return fmt.Errorf("failed to load metrics config: %w", err)
	}
	return nil
}

func loadServerSettings(cfg *ServerSettings) error {
	var err error
	if cfg.ShutdownTimeout, err = parseDurationEnv("SERVER_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}
	if cfg.ReadTimeout, err = parseDurationEnv("SERVER_READ_TIMEOUT", cfg.ReadTimeout); err != nil {
		return err
	}
	if cfg.WriteTimeout, err = parseDurationEnv("SERVER_WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return err
	}
	if cfg.WatchConfig, err = parseBoolEnv("SERVER_WATCH_CONFIG", cfg.WatchConfig); err != nil {
		return err
	}
	return nil
}

func loadWorkerSettings(cfg *WorkerSettings) error {
	var err error
	if cfg.PoolSize, err = parseIntEnv("WORKER_POOL_SIZE", cfg.PoolSize); err != nil {
		return err
	}
	if cfg.JitterMin, err = parseDurationEnv("WORKER_JITTER_MIN", cfg.JitterMin); err != nil {
		return err
	}
	if cfg.JitterMax, err = parseDurationEnv("WORKER_JITTER_MAX", cfg.JitterMax); err != nil {
		return err
	}
	return nil
}

func loadBackoffSettings(cfg *BackoffSettings) error {
	var err error
	if cfg.InitialInterval, err = parseDurationEnv("BACKOFF_INITIAL_INTERVAL", cfg.InitialInterval); err != nil {
		return err
	}
	if cfg.MaxInterval, err = parseDurationEnv("BACKOFF_MAX_INTERVAL", cfg.MaxInterval); err != nil {
		return err
	}
	if cfg.MaxElapsedTime, err = parseDurationEnv("BACKOFF_MAX_ELAPSED_TIME", cfg.MaxElapsedTime); err != nil {
		return err
	}
	if cfg.Multiplier, err = parseFloatEnv("BACKOFF_MULTIPLIER", cfg.Multiplier); err != nil {
		return err
	}
	if cfg.RandomizationFactor, err = parseFloatEnv("BACKOFF_RANDOMIZATION_FACTOR", cfg.RandomizationFactor); err != nil {
		return err
	}
	return nil
}

func loadBrowserSettings(cfg *BrowserSettings) error {
	var err error
	if v := os.Getenv("BROWSER_CONTROL_URL"); v != "" {
		cfg.ControlURL = v
	}
	if cfg.UseLauncher, err = parseBoolEnv("BROWSER_USE_LAUNCHER", cfg.UseLauncher); err != nil {
		return err
	}
	if cfg.PageTimeout, err = parseDurationEnv("BROWSER_PAGE_TIMEOUT", cfg.PageTimeout); err != nil {
		return err
	}
	if v := os.Getenv("BROWSER_READY_SELECTOR"); v != "" {
		cfg.ReadySelect = v
	}
	if cfg.ReadyWait, err = parseDurationEnv("BROWSER_READY_WAIT", cfg.ReadyWait); err != nil {
		return err
	}
	if v := os.Getenv("BROWSER_USER_AGENTS"); v != "" {
		cfg.UserAgents = splitList(v, "|")
	}
	return nil
}

func loadStoreSettings(cfg *StoreSettings) error {
	var err error
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("STORE_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if cfg.MaxConns, err = parseIntEnv("STORE_MAX_CONNS", cfg.MaxConns); err != nil {
		return err
	}
	if cfg.ConnTimeout, err = parseDurationEnv("STORE_CONN_TIMEOUT", cfg.ConnTimeout); err != nil {
		return err
	}
	return nil
}

func loadNotifierConfig(cfg *NotifierConfig) error {
	var err error
	if cfg.Enabled, err = parseBoolEnv("NOTIFIER_ENABLED", cfg.Enabled); err != nil {
		return err
	}
	if v := os.Getenv("NOTIFIER_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("NOTIFIER_STREAM"); v != "" {
		cfg.Stream = v
	}
	maxLen, err := parseIntEnv("NOTIFIER_MAX_LEN", int(cfg.MaxLen))
	if err != nil {
		return err
	}
	cfg.MaxLen = int64(maxLen)
	return nil
}

func loadRateLimitConfig(cfg *RateLimitConfig) error {
	var err error
	if cfg.Enabled, err = parseBoolEnv("RATE_LIMIT_ENABLED", cfg.Enabled); err != nil {
		return err
	}
	if cfg.RequestsPerMinute, err = parseIntEnv("RATE_LIMIT_REQUESTS_PER_MINUTE", cfg.RequestsPerMinute); err != nil {
		return err
	}
	if cfg.Burst, err = parseIntEnv("RATE_LIMIT_BURST", cfg.Burst); err != nil {
		return err
	}
	if cfg.CleanupInterval, err = parseDurationEnv("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval); err != nil {
		return err
	}
	return nil
}

func loadFeedSettings(cfg *FeedSettings) error {
	var err error
	if cfg.CacheTTL, err = parseDurationEnv("FEED_CACHE_TTL", cfg.CacheTTL); err != nil {
		return err
	}
	if cfg.CacheSize, err = parseIntEnv("FEED_CACHE_SIZE", cfg.CacheSize); err != nil {
		return err
	}
	return nil
}

func loadMetricsConfig(cfg *MetricsConfig) error {
	var err error
	if cfg.Enabled, err = parseBoolEnv("METRICS_ENABLED", cfg.Enabled); err != nil {
		return err
	}
	if v := os.Getenv("METRICS_PATH"); v != "" {
		cfg.Path = v
	}
	return nil
}

func validateSettings(s *Settings) error {
	if s.ConfigPath == "" {
		return fmt.Errorf("config path cannot be empty")
	}
	if s.Worker.PoolSize <= 0 {
		return fmt.Errorf("worker pool size must be positive: %d", s.Worker.PoolSize)
	}
	if s.Worker.JitterMin < 0 || s.Worker.JitterMax < s.Worker.JitterMin {
		return fmt.Errorf("invalid worker jitter range: %v-%v", s.Worker.JitterMin, s.Worker.JitterMax)
	}
	if s.Backoff.InitialInterval <= 0 {
		return fmt.Errorf("backoff initial interval must be positive: %v", s.Backoff.InitialInterval)
	}
	if s.Backoff.Multiplier < 1.0 {
		return fmt.Errorf("backoff multiplier must be at least 1.0: %f", s.Backoff.Multiplier)
	}
	if s.Backoff.RandomizationFactor < 0 || s.Backoff.RandomizationFactor >= 1 {
		return fmt.Errorf("backoff randomization factor must be in [0,1): %f", s.Backoff.RandomizationFactor)
	}
	if s.Backoff.MaxElapsedTime <= 0 {
		return fmt.Errorf("backoff max elapsed time must be positive: %v", s.Backoff.MaxElapsedTime)
	}
	if s.Browser.ControlURL == "" {
		return fmt.Errorf("browser control URL cannot be empty")
	}
	if s.Browser.PageTimeout <= 0 {
		return fmt.Errorf("browser page timeout must be positive: %v", s.Browser.PageTimeout)
	}
	switch s.Store.Driver {
	case StoreDriverSQLite:
	case StoreDriverPostgres:
		if s.Store.PostgresDSN == "" {
			return fmt.Errorf("STORE_POSTGRES_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", s.Store.Driver)
	}
	if s.Notifier.Enabled && s.Notifier.Stream == "" {
		return fmt.Errorf("notifier stream cannot be empty")
	}
	if s.RateLimit.Enabled && s.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate limit requests per minute must be positive: %d", s.RateLimit.RequestsPerMinute)
	}
	if s.Feed.CacheSize <= 0 {
		return fmt.Errorf("feed cache size must be positive: %d", s.Feed.CacheSize)
	}
	return nil
}

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

func splitList(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return d, nil
	}
	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return i, nil
	}
	return defaultValue, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return b, nil
	}
	return defaultValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return f, nil
	}
	return defaultValue, nil
}

// BackoffConfig converts the settings into a retry policy configuration.
func (b BackoffSettings) BackoffConfig() retry.BackoffConfig {
	return retry.BackoffConfig{
		InitialInterval:     b.InitialInterval,
		MaxInterval:         b.MaxInterval,
		MaxElapsedTime:      b.MaxElapsedTime,
		Multiplier:          b.Multiplier,
		RandomizationFactor: b.RandomizationFactor,
	}
}
