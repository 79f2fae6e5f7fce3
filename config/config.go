// Package config loads settings from defaults, an optional config file and
// FORMASSIST_ prefixed environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"muni-form-assist/lookup"
	"os"
	"strings"
	"time"
)

// EnvPrefix of every environment variable read, e.g. FORMASSIST_UPSTREAM_BASE_URL
const EnvPrefix = "FORMASSIST"

// Config everything the server can be told
type Config struct {
	// Listen address of the HTTP server
	Listen string `mapstructure:"listen" validate:"required"`

	// Timezone dates are interpreted in
	Timezone string `mapstructure:"timezone" validate:"required"`

	Upstream Upstream `mapstructure:"upstream"`
	Lookup   Lookup   `mapstructure:"lookup"`
	Log      Log      `mapstructure:"log"`
}

// Upstream the finance application lookups are sent to
type Upstream struct {
	BaseURL   string           `mapstructure:"base_url" validate:"required,url"`
	Timeout   time.Duration    `mapstructure:"timeout" validate:"gt=0"`
	Endpoints lookup.Endpoints `mapstructure:"endpoints"`
}

type Lookup struct {
	MinTerm  int           `mapstructure:"min_term" validate:"min=1"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"min=0"`
	Debounce time.Duration `mapstructure:"debounce" validate:"min=0"`
}

type Log struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// Load reads configFile, or config.{yaml,json,toml} from the working
// directory and /etc/formassist/ when configFile is empty. Only a named
// config file has to exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/formassist/")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	config.Log.Level = strings.ToLower(config.Log.Level)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Location the time zone named by Timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("timezone", "America/Argentina/Buenos_Aires")

	v.SetDefault("upstream.base_url", "http://localhost:8000")
	v.SetDefault("upstream.timeout", lookup.DefaultTimeout)

	endpoints := lookup.DefaultEndpoints()
	for kind, e := range endpoints.Suggest {
		v.SetDefault(fmt.Sprintf("upstream.endpoints.suggest.%s.path", kind), e.Path)
		v.SetDefault(fmt.Sprintf("upstream.endpoints.suggest.%s.param", kind), e.Param)
	}
	for kind, e := range endpoints.Find {
		v.SetDefault(fmt.Sprintf("upstream.endpoints.find.%s.path", kind), e.Path)
		v.SetDefault(fmt.Sprintf("upstream.endpoints.find.%s.param", kind), e.Param)
	}
	v.SetDefault("upstream.endpoints.create_person", endpoints.CreatePerson)

	v.SetDefault("lookup.min_term", lookup.DefaultMinTerm)
	v.SetDefault("lookup.cache_ttl", time.Minute)
	v.SetDefault("lookup.debounce", 250*time.Millisecond)

	v.SetDefault("log.level", "info")
}
