package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Conflate ConflateConfig `yaml:"conflate" mapstructure:"conflate"`
	Sweep    SweepConfig    `yaml:"sweep" mapstructure:"sweep"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the layer store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SRID        int    `yaml:"srid" mapstructure:"srid"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// ConflateConfig holds conflation defaults and geometry engine tuning.
type ConflateConfig struct {
	Buffer         float64 `yaml:"buffer" mapstructure:"buffer"`
	AngleThreshold float64 `yaml:"angle_threshold" mapstructure:"angle_threshold"`
	FinishBuffer   float64 `yaml:"finish_buffer" mapstructure:"finish_buffer"`
	SnapTolerance  float64 `yaml:"snap_tolerance" mapstructure:"snap_tolerance"`
	ArcSegments    int     `yaml:"arc_segments" mapstructure:"arc_segments"`
	StatsFormat    string  `yaml:"stats_format" mapstructure:"stats_format"`
}

// SweepConfig configures the buffer sweep.
type SweepConfig struct {
	Buffers []float64 `yaml:"buffers" mapstructure:"buffers"`
	Workers int       `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the layer browsing server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst          int      `yaml:"burst" mapstructure:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NETCONFLATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "netconflate.db")
	v.SetDefault("store.srid", 0)
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("conflate.buffer", 0)
	v.SetDefault("conflate.angle_threshold", 0)
	v.SetDefault("conflate.finish_buffer", 1e-4)
	v.SetDefault("conflate.snap_tolerance", 0)
	v.SetDefault("conflate.arc_segments", 16)
	v.SetDefault("conflate.stats_format", "text")
	v.SetDefault("sweep.buffers", []float64{1, 2, 3, 4, 5, 10, 15, 20})
	v.SetDefault("sweep.workers", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "conflate", "precomp", "layers" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for sqlite")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	case "memory":
	default:
		errs = append(errs, "store.driver must be one of sqlite, postgres, memory")
	}

	switch mode {
	case "conflate":
		if c.Conflate.FinishBuffer <= 0 {
			errs = append(errs, "conflate.finish_buffer must be > 0")
		}
		if c.Conflate.ArcSegments < 2 {
			errs = append(errs, "conflate.arc_segments must be >= 2")
		}
		if c.Conflate.SnapTolerance < 0 {
			errs = append(errs, "conflate.snap_tolerance must be >= 0")
		}
	case "precomp":
		if c.Sweep.Workers < 1 {
			errs = append(errs, "sweep.workers must be >= 1")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
	case "layers":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
