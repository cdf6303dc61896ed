// Package config loads the service configuration from defaults, an optional
// YAML file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Images   ImagesConfig   `mapstructure:"images"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Auth     AuthConfig     `mapstructure:"auth"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
}

type AppConfig struct {
	Port      string `mapstructure:"port"`
	BodyLimit int    `mapstructure:"body_limit"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ImagesConfig struct {
	// Root is the directory image blobs are written to, usually <webroot>/img.
	Root string `mapstructure:"root"`
	// URLPrefix is where Root is served from.
	URLPrefix string `mapstructure:"url_prefix"`
}

type CatalogConfig struct {
	PageSize                int  `mapstructure:"page_size"`
	MaxPageSize             int  `mapstructure:"max_page_size"`
	UpdateScalarsWithPhotos bool `mapstructure:"update_scalars_with_photos"`
	PurgeImagesOnDelete     bool `mapstructure:"purge_images_on_delete"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// AMQPConfig configures catalog event publishing. An empty URL disables it.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// SetDefaults registers every key with its default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.body_limit", 32*1024*1024)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "fiorella.db")
	v.SetDefault("images.root", filepath.Join("wwwroot", "img"))
	v.SetDefault("images.url_prefix", "/img")
	v.SetDefault("catalog.page_size", 10)
	v.SetDefault("catalog.max_page_size", 100)
	v.SetDefault("catalog.update_scalars_with_photos", true)
	v.SetDefault("catalog.purge_images_on_delete", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "catalog")
}

// Load reads the configuration. configFile may be empty.
// Environment variables use the FIORELLA_ prefix, e.g. FIORELLA_DATABASE_DSN.
func Load(configFile string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file loaded: %v", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("FIORELLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	log.Printf("[config] port=%s db=%s images=%s page_size=%d", cfg.App.Port, cfg.Database.Driver, cfg.Images.Root, cfg.Catalog.PageSize)
	return cfg, nil
}

// Validate checks the values that would otherwise fail later at runtime.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.Images.Root == "" {
		return errors.New("images root is required")
	}
	if c.Catalog.PageSize <= 0 {
		return errors.New("catalog page_size must be positive")
	}
	if c.Catalog.MaxPageSize < c.Catalog.PageSize {
		return errors.New("catalog max_page_size must not be below page_size")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth jwt_secret is required")
	}
	return nil
}
