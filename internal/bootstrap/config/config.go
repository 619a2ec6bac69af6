package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Bus      BusConfig      `mapstructure:"bus"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type BusConfig struct {
	// NATSURL enables the cross-node relay when non-empty.
	NATSURL           string        `mapstructure:"nats_url"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	PresenceTimeout   time.Duration `mapstructure:"presence_timeout"`
}

type WorkflowConfig struct {
	// ReminderDays/EscalationDays are fallbacks; per-audit settings win.
	ReminderDays   int    `mapstructure:"reminder_days"`
	EscalationDays int    `mapstructure:"escalation_days"`
	StagesFile     string `mapstructure:"stages_file"`
	SweepSpec      string `mapstructure:"sweep_spec"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "voltaudit")
	v.SetDefault("app.env", "development")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/voltaudit.db")
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("bus.nats_url", "")
	v.SetDefault("bus.heartbeat_interval", 30*time.Second)
	v.SetDefault("bus.presence_timeout", time.Duration(0))
	v.SetDefault("workflow.reminder_days", 2)
	v.SetDefault("workflow.escalation_days", 5)
	v.SetDefault("workflow.stages_file", "configs/stages.toml")
	v.SetDefault("workflow.sweep_spec", "@every 3m")
}

func validate(cfg Config) error {
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if cfg.Workflow.ReminderDays < 0 || cfg.Workflow.EscalationDays < 0 {
		return errors.New("workflow thresholds must be >= 0")
	}
	if cfg.Bus.HeartbeatInterval <= 0 {
		return errors.New("bus.heartbeat_interval must be positive")
	}
	return nil
}

// EffectivePresenceTimeout defaults to twice the heartbeat interval when unset.
func (c BusConfig) EffectivePresenceTimeout() time.Duration {
	if c.PresenceTimeout > 0 {
		return c.PresenceTimeout
	}
	return 2 * c.HeartbeatInterval
}
