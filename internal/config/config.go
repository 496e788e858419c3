// Package config loads daemon configuration from command line flags layered
// over an optional TOML file.
package config

import (
	"flag"
	"os"

	"github.com/aprilwade/teslafanctl/internal/curve"
	"github.com/aprilwade/teslafanctl/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	// UUID of the GPU the controller was built for; overridable for other
	// cards of the same setup.
	defaultUUID = "GPU-b60cae4e-f524-14a8-2233-2dc2126b6754"

	defaultInterval = 5.0
	defaultDBPath   = "/var/lib/teslafanctl/metrics.db"

	configEnvVar = "TESLAFANCTL_CONFIG"
)

type Config struct {
	// UUID identifies the GPU to sample telemetry from.
	UUID string

	// Override, when 0-255, bypasses the control loop: the daemon sends
	// this duty cycle once and exits. -1 means disabled.
	Override int

	// Interval between control ticks, in seconds.
	Interval float64

	// Curve is the textual calibration curve ("load:speed,..."); empty
	// selects the built-in default table.
	Curve string

	Monitor  bool
	Debug    bool
	Verbose  bool
	Metrics  bool
	Database string

	// FanCurve is the parsed form of Curve, nil when Curve is empty.
	FanCurve *curve.Curve `mapstructure:"-"`
}

// Load reads flags and the config file, merges them and validates the
// result. Every failure here is fatal before the loop ever starts.
func Load() (*Config, error) {
	errFactory := errors.New()
	config := &Config{}

	// Define flags
	fs := flag.NewFlagSet("teslafanctl", flag.ContinueOnError)
	fs.StringVar(&config.UUID, "uuid", defaultUUID, "UUID of the GPU to monitor")
	fs.IntVar(&config.Override, "override", -1, "Send a fixed fan speed (0-255) once and exit")
	fs.Float64Var(&config.Interval, "interval", defaultInterval, "Seconds between updates")
	fs.StringVar(&config.Curve, "curve", "", "Fan curve as comma-separated load:speed pairs")
	fs.BoolVar(&config.Monitor, "monitor", false, "Compute and log fan speeds without commanding the fan")
	fs.BoolVar(&config.Debug, "debug", false, "Enable debugging mode")
	fs.BoolVar(&config.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&config.Metrics, "metrics", false, "Record per-tick snapshots to the metrics database")
	fs.StringVar(&config.Database, "database", defaultDBPath, "Path to the metrics database")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	// Load configuration from file
	v := viper.New()
	v.SetConfigName("teslafanctl")
	v.SetConfigType("toml")
	if path := os.Getenv(configEnvVar); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("/etc")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Command line flags win over config file values
	fs.Visit(func(f *flag.Flag) {
		v.Set(f.Name, f.Value.String())
	})

	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	// Set log level based on config
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if config.Verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	return config, nil
}

func (c *Config) validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if c.Override < -1 || c.Override > 255 {
		return errFactory.WithData(errors.ErrInvalidOverride, c.Override)
	}

	if c.Curve != "" {
		fanCurve, err := curve.Parse(c.Curve)
		if err != nil {
			return err
		}
		c.FanCurve = fanCurve
	}

	return nil
}

// HasOverride reports whether the one-shot override path is selected.
func (c *Config) HasOverride() bool {
	return c.Override >= 0
}
