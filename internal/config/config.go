// Package config loads slowpoke settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"slowpoke/internal/blob"
	"slowpoke/internal/core"
	"slowpoke/internal/logging"
)

// Journal drivers.
const (
	JournalMemory   = "memory"
	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
)

// Config is the full CLI configuration.
type Config struct {
	Log     logging.Config `koanf:"log"`
	Journal JournalConfig  `koanf:"journal"`
	Blob    blob.Config    `koanf:"blob"`
	Robot   RobotConfig    `koanf:"robot"`
	Metrics MetricsConfig  `koanf:"metrics"`

	profiles []core.Profile
}

// JournalConfig selects where runs and their events are kept.
type JournalConfig struct {
	Driver      string `koanf:"driver"`
	SQLitePath  string `koanf:"sqlite_path"`
	PostgresDSN string `koanf:"postgres_dsn"`
}

// RobotConfig configures execution.
type RobotConfig struct {
	// LockPath is the file lock guarding the robot against concurrent runs.
	LockPath string `koanf:"lock_path"`
	// Transcript, when set, receives the JSON-lines command stream.
	Transcript string `koanf:"transcript"`
}

// MetricsConfig configures observability output. Empty paths disable it.
type MetricsConfig struct {
	// Textfile receives the Prometheus textfile written after each command.
	Textfile string `koanf:"textfile"`
	// TraceFile receives service spans as JSON lines, appended.
	TraceFile string `koanf:"trace_file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	def := logging.NewDefaultConfig()
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Format
	}
	if cfg.Log.Fields == nil {
		cfg.Log.Fields = def.Fields
	}
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = JournalMemory
	}
	if cfg.Journal.Driver == JournalSQLite && cfg.Journal.SQLitePath == "" {
		cfg.Journal.SQLitePath = "slowpoke.db"
	}
	if cfg.Blob.Driver == "" {
		cfg.Blob.Driver = blob.DriverFilesystem
	}
	if cfg.Blob.Driver == blob.DriverFilesystem && cfg.Blob.Root == "" {
		cfg.Blob.Root = "./artifacts"
	}
	if cfg.Robot.LockPath == "" {
		cfg.Robot.LockPath = "slowpoke.lock"
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Journal.Driver {
	case JournalMemory, JournalSQLite:
	case JournalPostgres:
		if c.Journal.PostgresDSN == "" {
			errs = append(errs, errors.New("journal.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("journal.driver %q is not one of memory, sqlite, postgres", c.Journal.Driver))
	}
	switch c.Blob.Driver {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver %q is not one of fs, s3, memory", c.Blob.Driver))
	}
	if c.Robot.LockPath == "" {
		errs = append(errs, errors.New("robot.lock_path must not be empty"))
	}
	return errors.Join(errs...)
}

// JournalOptions maps the journal section onto the core opener.
func (c *Config) JournalOptions() core.JournalOptions {
	return core.JournalOptions{
		Driver:      core.StorageDriver(c.Journal.Driver),
		SQLitePath:  c.Journal.SQLitePath,
		PostgresDSN: c.Journal.PostgresDSN,
	}
}
