package config

import (
	"fmt"
	"time"
)

// Драйверы хранилища
const (
	DriverSQLite   = "sqlite"
	DriverMSSQL    = "mssql"
	DriverPostgres = "postgres"
)

// Каналы уведомлений
const (
	NotifyLog     = "log"
	NotifyDiscord = "discord"
	NotifyEmail   = "email"
)

const (
	ModeOneshot  = "oneshot"
	ModeInterval = "interval"
)

type Config struct {
	Source              SourceConfig        `yaml:"source"`
	Rod                 RodConfig           `yaml:"rod"`
	Backoff             BackoffConfig       `yaml:"backoff"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	HTTP                HttpConfig          `yaml:"http"`
	RateLimit           RateLimitConfig     `yaml:"rate_limit"`
	Pagination          PaginationConfig    `yaml:"pagination"`
	SelectorsFile       string              `yaml:"selectors_file"`
	Normalize           NormalizeConfig     `yaml:"normalize"`
	Filter              FilterConfig        `yaml:"filter"`
	Storage             StorageConfig       `yaml:"storage"`
	Notify              NotifyConfig        `yaml:"notify"`
	Scheduler           SchedulerConfig     `yaml:"scheduler"`
	Observability       ObservabilityConfig `yaml:"observability"`
}

type SourceConfig struct {
	BaseURL string `yaml:"base_url"`
	PerPage int    `yaml:"per_page"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
}

type BackoffConfig struct {
	MinMS     int `yaml:"min_ms"`
	MaxMS     int `yaml:"max_ms"`
	JitterPct int `yaml:"jitter_pct"`
}

type HttpConfig struct {
	UserAgent                 string `yaml:"user_agent"`
	ConnectTimeoutMS          int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS            int    `yaml:"total_timeout_ms"`
	MaxRetries                int    `yaml:"max_retries"`
	MaxIdleConnections        int    `yaml:"max_idle_connections"`
	MaxIdleConnectionsPerHost int    `yaml:"max_idle_connections_per_host"`
	IdleConnectionTimeoutS    int    `yaml:"idle_connection_timeout_s"`
	AcceptLanguage            string `yaml:"accept_language"`
	RespectRobots             bool   `yaml:"respect_robots"`
}

type RateLimitConfig struct {
	MaxConcurrentPerHost int `yaml:"max_concurrent_per_host"`
	RPM                  int `yaml:"rpm"`
}

type PaginationConfig struct {
	StartPage int `yaml:"start_page"`
	MaxPages  int `yaml:"max_pages"`
}

type NormalizeConfig struct {
	TrimNBSP        bool `yaml:"trim_nbsp"`
	CollapseSpaces  bool `yaml:"collapse_spaces"`
	MaxPreviewChars int  `yaml:"max_preview_chars"`
}

type FilterConfig struct {
	CostCeiling             float64  `yaml:"cost_ceiling"`
	MileageCeiling          float64  `yaml:"mileage_ceiling"`
	ExcludedCategoryMarkers []string `yaml:"excluded_category_markers"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type NotifyConfig struct {
	Kind       string     `yaml:"kind"`
	WebhookURL string     `yaml:"webhook_url"`
	TimeoutMS  int        `yaml:"timeout_ms"`
	SMTP       SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

type SchedulerConfig struct {
	Mode      string `yaml:"mode"`
	IntervalS int    `yaml:"interval_s"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
}

// Default возвращает конфиг со значениями по умолчанию, поверх которых декодируется YAML
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL: "https://classifieds.castanet.net",
			PerPage: 100,
		},
		Rod: RodConfig{
			PageTimeoutS:     30,
			WaitLoadTimeoutS: 15,
		},
		Backoff: BackoffConfig{
			MinMS:     250,
			MaxMS:     2000,
			JitterPct: 20,
		},
		RobotsCacheTTLHours: 12,
		HTTP: HttpConfig{
			UserAgent:                 "castanet-watch/1.0",
			ConnectTimeoutMS:          10000,
			TotalTimeoutMS:            30000,
			MaxRetries:                0,
			MaxIdleConnections:        10,
			MaxIdleConnectionsPerHost: 2,
			IdleConnectionTimeoutS:    90,
			AcceptLanguage:            "en-CA,en;q=0.9",
			RespectRobots:             true,
		},
		RateLimit: RateLimitConfig{
			MaxConcurrentPerHost: 1,
			RPM:                  30,
		},
		Pagination: PaginationConfig{
			StartPage: 1,
			MaxPages:  1,
		},
		Normalize: NormalizeConfig{
			TrimNBSP:        true,
			CollapseSpaces:  true,
			MaxPreviewChars: 280,
		},
		Filter: FilterConfig{
			CostCeiling:             20000,
			MileageCeiling:          160000,
			ExcludedCategoryMarkers: []string{"Trucks", "Vintage"},
		},
		Storage: StorageConfig{
			Driver:           "sqlite",
			DSN:              "vehicles.db",
			CommandTimeoutMS: 5000,
		},
		Notify: NotifyConfig{
			Kind:      "log",
			TimeoutMS: 10000,
			SMTP: SMTPConfig{
				Port: 587,
			},
		},
		Scheduler: SchedulerConfig{
			Mode: "oneshot",
		},
		Observability: ObservabilityConfig{
			LogPath:       "logs/castanet-watch.log",
			LogLevel:      "info",
			LogMaxSizeMB:  10,
			LogMaxBackups: 3,
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if c.Source.PerPage <= 0 {
		return fmt.Errorf("source.per_page must be > 0")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.RateLimit.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("rate_limit.max_concurrent_per_host must be > 0")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.Pagination.StartPage <= 0 {
		return fmt.Errorf("pagination.start_page must be > 0")
	}
	if c.Pagination.MaxPages <= 0 {
		return fmt.Errorf("pagination.max_pages must be > 0")
	}
	if c.Filter.CostCeiling <= 0 {
		return fmt.Errorf("filter.cost_ceiling must be > 0")
	}
	if c.Filter.MileageCeiling <= 0 {
		return fmt.Errorf("filter.mileage_ceiling must be > 0")
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverMSSQL, DriverPostgres:
	default:
		return fmt.Errorf("storage.driver must be 'sqlite', 'mssql' or 'postgres'")
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required")
	}
	if c.Storage.CommandTimeoutMS <= 0 {
		return fmt.Errorf("storage.command_timeout_ms must be > 0")
	}
	switch c.Notify.Kind {
	case NotifyLog:
	case NotifyDiscord:
		if c.Notify.WebhookURL == "" {
			return fmt.Errorf("notify.webhook_url is required when notify.kind is 'discord'")
		}
	case NotifyEmail:
		if c.Notify.SMTP.Server == "" || c.Notify.SMTP.Port <= 0 {
			return fmt.Errorf("notify.smtp.server and notify.smtp.port are required when notify.kind is 'email'")
		}
		if c.Notify.SMTP.From == "" || len(c.Notify.SMTP.To) == 0 {
			return fmt.Errorf("notify.smtp.from and notify.smtp.to are required when notify.kind is 'email'")
		}
	default:
		return fmt.Errorf("notify.kind must be 'log', 'discord' or 'email'")
	}
	if c.Notify.TimeoutMS <= 0 {
		return fmt.Errorf("notify.timeout_ms must be > 0")
	}
	if c.Scheduler.Mode != ModeInterval && c.Scheduler.Mode != ModeOneshot {
		return fmt.Errorf("scheduler.mode must be 'interval' or 'oneshot'")
	}
	if c.Scheduler.Mode == ModeInterval && c.Scheduler.IntervalS <= 0 {
		return fmt.Errorf("scheduler.interval_s must be > 0 when mode is 'interval'")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	if c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0")
	}
	if c.Backoff.MinMS <= 0 {
		return fmt.Errorf("backoff.min_ms must be > 0")
	}
	if c.Backoff.MaxMS <= 0 {
		return fmt.Errorf("backoff.max_ms must be > 0")
	}
	if c.Backoff.MinMS > c.Backoff.MaxMS {
		return fmt.Errorf("backoff.min_ms must be <= backoff.max_ms")
	}
	if c.Backoff.JitterPct < 0 || c.Backoff.JitterPct > 100 {
		return fmt.Errorf("backoff.jitter_pct must be between 0 and 100")
	}
	if c.Rod.Enabled {
		if c.Rod.ChromePath == "" {
			return fmt.Errorf("rod.chrome_path is required when rod.enabled is true")
		}
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
	}
	return nil
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleConnectionTimeout() time.Duration {
	return time.Duration(c.HTTP.IdleConnectionTimeoutS) * time.Second
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.Backoff.MinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetNotifyTimeout() time.Duration {
	return time.Duration(c.Notify.TimeoutMS) * time.Millisecond
}

func (c *Config) GetSchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalS) * time.Second
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}
