// Package config holds the runtime configuration for the provisioning
// tool. Values are layered: defaults, then provision.toml, then PROVISION_*
// environment variables, then command line flags.
package config

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config describes all configuration options
type Config struct {
	Manifest string `usage:"Path to the requirements manifest (discovered from the project root when empty)"`
	Pip      string `default:"pip3" usage:"pip executable used for the Python dependencies"`
	Sudo     bool   `default:"false" usage:"Prefix package manager invocations with sudo"`

	Apt struct {
		Get       string `default:"apt-get" usage:"apt-get executable"`
		DpkgQuery string `default:"dpkg-query" usage:"dpkg-query executable"`
	}

	Log struct {
		Level string `default:"info"`
		JSON  bool   `default:"false" usage:"Output JSON events instead of pretty console messages"`
	}

	TimeoutMinutes int `default:"30" usage:"Abort the whole run after this many minutes"`
}

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object
func Loader() (*Config, *aconfig.Loader) {
	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PROVISION",
		SkipFlags: true,
		Files:     []string{"provision.toml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf(`Invalid value for log.level: %s`, cfg.Log.Level)
	}

	if cfg.TimeoutMinutes < 1 {
		return eris.Errorf(`Invalid value for timeoutminutes: %d (must be at least 1)`, cfg.TimeoutMinutes)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}
