package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName = "pdrive"

	configName = "default-config"
	configType = "toml"
	envPrefix  = "PDRIVE"

	DefaultToken              = "MISSING_TOKEN"
	DefaultAPIURL             = "MISSING_API"
	DefaultConcurrentRequests = 2
	DefaultLogLevel           = "warn"
)

type Config struct {
	Token              string `mapstructure:"token" validate:"required"`
	APIURL             string `mapstructure:"api_url" validate:"required,url"`
	ConcurrentRequests int    `mapstructure:"concurrent_requests" validate:"gte=1"`

	// Logging config
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFile  string `mapstructure:"log_file"`

	// Path is the settings file the values were read from.
	Path string `mapstructure:"-"`
}

// LoadOpts controls where settings come from. A zero value reads the
// per-application settings file.
type LoadOpts struct {
	Path  string
	Flags *pflag.FlagSet
}

// DefaultPath returns the per-application settings file location,
// e.g. ~/.config/pdrive/default-config.toml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, AppName, configName+"."+configType), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("token", DefaultToken)
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("concurrent_requests", DefaultConcurrentRequests)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")
}

// Load reads the settings file, writing one with default placeholder values
// when it does not exist yet. PDRIVE_* environment variables and a changed
// --concurrency flag take precedence over the file.
func Load(opts LoadOpts) (*Config, error) {
	path := opts.Path
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configType)
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if opts.Flags != nil {
		if f := opts.Flags.Lookup("concurrency"); f != nil && f.Changed {
			if err := v.BindPFlag("concurrent_requests", f); err != nil {
				return nil, fmt.Errorf("bind concurrency flag: %w", err)
			}
		}
	}

	// Read config file
	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := writeDefaults(path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// writeDefaults persists only the default values so that environment
// overrides such as PDRIVE_TOKEN never end up on disk.
func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	d := viper.New()
	d.SetConfigType(configType)
	setDefaults(d)
	if err := d.SafeWriteConfigAs(path); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("write default config %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) Validate() error {
	return validator.New().Struct(cfg)
}
