package config

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Gomafia GomafiaConfig `mapstructure:"gomafia"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Skipped SkippedConfig `mapstructure:"skipped"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type AuthConfig struct {
	Disabled  bool   `mapstructure:"disabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type GomafiaConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SyncConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Type         string        `mapstructure:"type"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
	CronSchedule string        `mapstructure:"cron_schedule"`
	ListingCap   int           `mapstructure:"listing_cap"`
	StaleAfter   time.Duration `mapstructure:"stale_after"`
}

type SkippedConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	// No env prefix: the deployment contract uses bare names such as
	// SYNC_BATCH_SIZE and SYNC_CRON_SCHEDULE.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("auth.disabled", false)
	v.SetDefault("gomafia.base_url", "https://gomafia.pro")
	v.SetDefault("gomafia.timeout", "15s")
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.type", "INCREMENTAL")
	v.SetDefault("sync.batch_size", 100)
	v.SetDefault("sync.max_retries", 3)
	v.SetDefault("sync.retry_delay", "1s")
	v.SetDefault("sync.cron_schedule", "0 0 * * *")
	v.SetDefault("sync.listing_cap", 1000)
	v.SetDefault("sync.stale_after", "24h")
	v.SetDefault("skipped.retention_days", 30)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		millisDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// millisDurationHook decodes bare numbers into durations as milliseconds.
// The deployment contract sets values like SYNC_RETRY_DELAY=1000 to mean one
// second; duration strings such as "30m" keep their usual meaning.
func millisDurationHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(from, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}
		switch raw := data.(type) {
		case string:
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return time.Duration(n) * time.Millisecond, nil
			}
		case int:
			return time.Duration(raw) * time.Millisecond, nil
		case int64:
			return time.Duration(raw) * time.Millisecond, nil
		case float64:
			return time.Duration(raw) * time.Millisecond, nil
		}
		return data, nil
	}
}
