// Package config loads settings from an optional imagefeed.yaml and
// IMAGEFEED_* environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "IMAGEFEED"

// Config holds application configuration loaded from environment variables or config file.
type Config struct {
	// Provider credentials
	AccessKey    string `mapstructure:"access_key" validate:"required"`
	SecretKey    string `mapstructure:"secret_key" secret:"true" validate:"required"`
	RedirectURI  string `mapstructure:"redirect_uri" default:"urn:ietf:wg:oauth:2.0:oob" validate:"required,uri"`
	AccessScope  string `mapstructure:"access_scope" default:"public read_user write_likes"`
	AuthorizeURL string `mapstructure:"authorize_url" default:"https://unsplash.com/oauth/authorize" validate:"required,url"`
	TokenURL     string `mapstructure:"token_url" default:"https://unsplash.com/oauth/token" validate:"required,url"`

	// Logging
	LogLevel  string `mapstructure:"log_level" default:"INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	LogFormat string `mapstructure:"log_format" default:"text" validate:"oneof=text json"`
	LogFile   string `mapstructure:"log_file"`

	// Development authorization server
	DevHost             string `mapstructure:"dev_host" default:"127.0.0.1" validate:"required"`
	DevPort             int    `mapstructure:"dev_port" default:"8089" validate:"min=1,max=65535"`
	DevJWTSecret        string `mapstructure:"dev_jwt_secret" secret:"true" default:"development-secret-change-in-production"`
	DevClientSecretHash string `mapstructure:"dev_client_secret_hash" secret:"true"`
	RedisURL            string `mapstructure:"redis_url" secret:"true"`
	DatabaseURL         string `mapstructure:"database_url" secret:"true"`
}

// unprefixedEnv lists keys that also honour the conventional variable name.
var unprefixedEnv = map[string]string{
	"redis_url":    "REDIS_URL",
	"database_url": "DATABASE_URL",
}

// Load reads configuration. path may name a config file explicitly; when
// empty, imagefeed.yaml is looked up in the working directory and
// $HOME/.config/imagefeed. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Config{}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("imagefeed")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/imagefeed")
	}

	// Defaults and env bindings for each field
	val := reflect.ValueOf(cfg)
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		key := typ.Field(i).Tag.Get("mapstructure")
		v.SetDefault(key, val.Field(i).Interface())

		envs := []string{EnvPrefix + "_" + strings.ToUpper(key)}
		if alt, ok := unprefixedEnv[key]; ok {
			envs = append(envs, alt)
		}
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields and enumerations.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// Scopes splits AccessScope on spaces or '+'.
func (c *Config) Scopes() []string {
	return strings.FieldsFunc(c.AccessScope, func(r rune) bool {
		return r == ' ' || r == '+'
	})
}

// String returns a string representation of the config with secret fields redacted.
func (c *Config) String() string {
	v := reflect.ValueOf(*c)
	t := v.Type()
	var sb strings.Builder
	sb.WriteString("Config{")
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := fmt.Sprintf("%v", v.Field(i).Interface())
		if field.Tag.Get("secret") == "true" && value != "" {
			value = "***REDACTED***"
		}
		sb.WriteString(field.Name + ": " + value)
		if i < t.NumField()-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteString("}")
	return sb.String()
}
