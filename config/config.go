// Package config loads cachekeepd's configuration, layering defaults,
// a config file, environment variables, and flags, in that order of
// increasing precedence, using spf13/viper, spf13/pflag, and
// validator/v10.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DatabaseConfig selects and configures the metadata store backend.
type DatabaseConfig struct {
	Type     string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	DSN      string `mapstructure:"dsn" validate:"required"`
	PoolSize int    `mapstructure:"pool_size" validate:"gte=0"`
}

// StorageConfig configures the cache directory and eviction policy.
type StorageConfig struct {
	Dir            string `mapstructure:"dir" validate:"required"`
	EvictionPolicy string `mapstructure:"eviction_policy" validate:"required,oneof=lru fifo random"`
}

// MaintenanceConfig configures the scheduled maintenance loop.
type MaintenanceConfig struct {
	Interval        time.Duration `mapstructure:"interval" validate:"required"`
	FindCorrupted   bool          `mapstructure:"find_corrupted"`
	RemoveCorrupted bool          `mapstructure:"remove_corrupted"`
	CleanExpired    bool          `mapstructure:"clean_expired"`
	PruneDangling   bool          `mapstructure:"prune_dangling"`
}

// LogConfig configures the slog handler cachekeepd installs at startup.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Env   string `mapstructure:"env" validate:"required,oneof=dev prod"`
}

// Config is cachekeepd's full configuration tree.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Storage     StorageConfig     `mapstructure:"storage" validate:"required"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance" validate:"required"`
	Log         LogConfig         `mapstructure:"log" validate:"required"`
}

var flagToViperKey = map[string]string{
	"db-type":     "database.type",
	"db-dsn":      "database.dsn",
	"storage-dir": "storage.dir",
	"log-level":   "log.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "cachekeep.db")
	v.SetDefault("database.pool_size", 0)
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("storage.eviction_policy", "lru")
	v.SetDefault("maintenance.interval", "5m")
	v.SetDefault("maintenance.find_corrupted", true)
	v.SetDefault("maintenance.remove_corrupted", true)
	v.SetDefault("maintenance.clean_expired", true)
	v.SetDefault("maintenance.prune_dangling", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "dev")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key, ok := flagToViperKey[f.Name]
		if !ok {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

// Load builds a Config from defaults, an optional config file, the
// CACHEKEEP_-prefixed environment, and flags, in that order of
// precedence, then validates the result.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix("CACHEKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: validate: %w", err)
	}

	return cfg, nil
}
