package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/spf13/viper"
)

// Config holds the client configuration, read once at start-up
type Config struct {
	APIBaseURL  string
	Locale      string
	Credentials CredentialsConfig
	Redis       RedisConfig
	HTTPTimeout time.Duration
	Debug       bool
}

// CredentialsConfig selects where the session token is persisted
type CredentialsConfig struct {
	Store string
	Path  string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Credential store kinds
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Load loads configuration from environment variables and a .env file in
// the working directory.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile loads configuration from environment variables and the optional
// env file at path. Environment variables win over the file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	// the env file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := bindConfig(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vota_locale", "de")
	v.SetDefault("vota_credential_store", StoreFile)
	v.SetDefault("vota_credential_path", "vota-credentials")
	v.SetDefault("vota_redis_addr", "localhost:6379")
	v.SetDefault("vota_redis_db", 0)
	v.SetDefault("vota_http_timeout", "0s")
	v.SetDefault("vota_debug", false)
}

func bindConfig(v *viper.Viper) *Config {
	return &Config{
		APIBaseURL: strings.TrimSpace(v.GetString("public_api_url")),
		Locale:     strings.TrimSpace(v.GetString("vota_locale")),
		Credentials: CredentialsConfig{
			Store: strings.ToLower(strings.TrimSpace(v.GetString("vota_credential_store"))),
			Path:  strings.TrimSpace(v.GetString("vota_credential_path")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("vota_redis_addr"),
			Password: v.GetString("vota_redis_password"),
			DB:       v.GetInt("vota_redis_db"),
		},
		HTTPTimeout: v.GetDuration("vota_http_timeout"),
		Debug:       v.GetBool("vota_debug"),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.APIBaseURL, validation.Required, is.URL,
			validation.By(absoluteHTTPURL)),
		validation.Field(&c.Locale, validation.Required),
		validation.Field(&c.Credentials),
		validation.Field(&c.HTTPTimeout, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	if c.Credentials.Store == StoreRedis {
		return c.Redis.Validate()
	}
	return nil
}

func (c CredentialsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Store, validation.Required,
			validation.In(StoreMemory, StoreFile, StoreSQLite, StoreRedis)),
		validation.Field(&c.Path, validation.By(func(value any) error {
			if c.Store != StoreFile && c.Store != StoreSQLite {
				return nil
			}
			return validation.Validate(value, validation.Required)
		})),
	)
}

func (r RedisConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Addr, validation.Required),
		validation.Field(&r.DB, validation.Min(0)),
	)
}

func absoluteHTTPURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return errors.New("must be an absolute http or https url")
	}
	return nil
}
