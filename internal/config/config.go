package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"andicblue/backend/internal/catalog"
	"andicblue/backend/internal/domain"
)

const envPrefix = "ANDICBLUE"

const (
	StorageCSV      = "csv"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is read from ANDICBLUE_* environment variables.
type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`
	RateLimit     int    `envconfig:"RATE_LIMIT" default:"120"`

	Storage     string `envconfig:"STORAGE" default:"csv"`
	DataDir     string `envconfig:"DATA_DIR" default:"./data"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	DeliveryFee   int64  `envconfig:"DELIVERY_FEE" default:"3000"`
	CatalogFile   string `envconfig:"CATALOG_FILE"`
	CatalogStrict bool   `envconfig:"CATALOG_STRICT" default:"false"`

	RetryAttempts int           `envconfig:"RETRY_ATTEMPTS" default:"5"`
	RetryInitial  time.Duration `envconfig:"RETRY_INITIAL" default:"500ms"`
	RetryMaxSleep time.Duration `envconfig:"RETRY_MAX_SLEEP" default:"8s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	Timezone  string `envconfig:"TIMEZONE" default:"America/Bogota"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageCSV:
		if strings.TrimSpace(c.DataDir) == "" {
			return errors.New("DATA_DIR is required for csv storage")
		}
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.DeliveryFee < 0 {
		return errors.New("DELIVERY_FEE must not be negative")
	}
	if c.RetryAttempts < 1 {
		return errors.New("RETRY_ATTEMPTS must be at least 1")
	}
	if c.RetryInitial <= 0 || c.RetryMaxSleep < c.RetryInitial {
		return errors.New("RETRY_INITIAL must be positive and not above RETRY_MAX_SLEEP")
	}
	if c.RateLimit < 0 {
		return errors.New("RATE_LIMIT must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves TIMEZONE; week numbers and timestamps use it.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type catalogFile struct {
	DeliveryFee *int64           `yaml:"delivery_fee"`
	Products    []domain.Product `yaml:"products"`
}

// Catalog builds the product catalog and delivery fee. Without CATALOG_FILE
// the built-in price list and DELIVERY_FEE are used; a file may override both.
func (c Config) Catalog() (*catalog.Catalog, int64, error) {
	if strings.TrimSpace(c.CatalogFile) == "" {
		return catalog.New(catalog.Default, c.CatalogStrict), c.DeliveryFee, nil
	}

	raw, err := os.ReadFile(c.CatalogFile)
	if err != nil {
		return nil, 0, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, 0, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, 0, errors.New("catalog file lists no products")
	}
	for _, p := range file.Products {
		if p.UnitPrice < 0 {
			return nil, 0, fmt.Errorf("catalog product %q has a negative price", p.Name)
		}
	}

	fee := c.DeliveryFee
	if file.DeliveryFee != nil {
		if *file.DeliveryFee < 0 {
			return nil, 0, errors.New("catalog delivery_fee must not be negative")
		}
		fee = *file.DeliveryFee
	}
	return catalog.New(file.Products, c.CatalogStrict), fee, nil
}
