package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Cron     CronConfig     `mapstructure:"cron"`
	Broker   BrokerConfig   `mapstructure:"broker"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Registry RegistryConfig `mapstructure:"registry"`
	Verifier VerifierConfig `mapstructure:"verifier"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Selector SelectorConfig `mapstructure:"selector"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

type AppConfig struct {
	Env        string `mapstructure:"env"`
	RunOnStart bool   `mapstructure:"run_on_start"`
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
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Ingest  string `mapstructure:"ingest"`
	Trade   string `mapstructure:"trade"`
}

type BrokerConfig struct {
	TradingBaseURL string        `mapstructure:"trading_base_url"`
	DataBaseURL    string        `mapstructure:"data_base_url"`
	APIKeyEnv      string        `mapstructure:"api_key_env"`
	APISecretEnv   string        `mapstructure:"api_secret_env"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type CalendarConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Pages     int           `mapstructure:"pages"`
	PageDelay time.Duration `mapstructure:"page_delay"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type RegistryConfig struct {
	BaseURL    string          `mapstructure:"base_url"`
	Timeout    time.Duration   `mapstructure:"timeout"`
	WindowDays int             `mapstructure:"window_days"`
	Sponsors   []SponsorConfig `mapstructure:"sponsors"`
}

// SponsorConfig names one lead sponsor to watch and the equity it trades
// under. Ticker resolution happens upstream; this is its hand-off point.
type SponsorConfig struct {
	Name   string `mapstructure:"name"`
	Ticker string `mapstructure:"ticker"`
}

type VerifierConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
}

type IngestConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type SelectorConfig struct {
	DateToleranceDays int     `mapstructure:"date_tolerance_days"`
	StrikeTolerance   float64 `mapstructure:"strike_tolerance"`
}

type EngineConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	LookaheadDays      int  `mapstructure:"lookahead_days"`
	TrialOffsetDays    int  `mapstructure:"trial_offset_days"`
	DecisionOffsetDays int  `mapstructure:"decision_offset_days"`
	OrderQty           int  `mapstructure:"order_qty"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.run_on_start", true)
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.ingest", "@every 6h")
	v.SetDefault("cron.trade", "@every 1h")
	v.SetDefault("broker.trading_base_url", "https://paper-api.alpaca.markets")
	v.SetDefault("broker.data_base_url", "https://data.alpaca.markets")
	v.SetDefault("broker.api_key_env", "APCA_API_KEY_ID")
	v.SetDefault("broker.api_secret_env", "APCA_API_SECRET_KEY")
	v.SetDefault("broker.timeout", "15s")
	v.SetDefault("calendar.base_url", "https://www.rttnews.com/corpinfo/fdacalendar.aspx")
	v.SetDefault("calendar.pages", 6)
	v.SetDefault("calendar.page_delay", "200ms")
	v.SetDefault("calendar.timeout", "20s")
	v.SetDefault("calendar.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("registry.base_url", "https://clinicaltrials.gov/api/v2/studies")
	v.SetDefault("registry.timeout", "20s")
	v.SetDefault("registry.window_days", 60)
	v.SetDefault("verifier.enabled", true)
	v.SetDefault("verifier.base_url", "https://api.fda.gov/drug/drugsfda.json")
	v.SetDefault("verifier.timeout", "10s")
	v.SetDefault("verifier.request_delay", "300ms")
	v.SetDefault("ingest.enabled", true)
	v.SetDefault("selector.date_tolerance_days", 15)
	v.SetDefault("selector.strike_tolerance", 5)
	v.SetDefault("engine.enabled", true)
	v.SetDefault("engine.lookahead_days", 15)
	v.SetDefault("engine.trial_offset_days", 60)
	v.SetDefault("engine.decision_offset_days", 14)
	v.SetDefault("engine.order_qty", 1)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
