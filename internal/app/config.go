package app

import (
	"io/fs"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/marine-storefront/internal/adminapi"
)

const defaultAddr = "0.0.0.0:8080"

// Snapshot backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (MARINE_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string        `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	APIURL         string        `env:"API_URL" usage:"Admin API base URL (MARINE_API_URL or API_URL)" flag:"api-url"`
	CatalogTimeout time.Duration `default:"10s" usage:"Timeout for admin API calls" flag:"catalog-timeout"`
	DatabaseURL    string        `usage:"PostgreSQL connection URL for the postgres cart backend (MARINE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Cart           CartConfig
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// CartConfig selects where the cart snapshot is kept.
type CartConfig struct {
	Backend string `default:"file" usage:"Snapshot backend: file or postgres" flag:"cart-backend"`
	Dir     string `default:"data" usage:"Snapshot directory for the file backend" flag:"cart-dir"`
	Key     string `default:"marine-cart" usage:"Snapshot key" flag:"cart-key"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from a .env file, environment variables,
// YAML config files and command line flags, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:], []string{"config.yaml", "/etc/marine/config.yaml"})
}

func loadConfig(args, files []string) (*Config, error) {
	// Real environment always wins over .env.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MARINE",
		Args:      args,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (PORT,
// DATABASE_URL, API_URL) to the MARINE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
	c.APIURL = adminapi.ResolveBaseURL(c.APIURL, os.Getenv)
}

func (c *Config) validate() error {
	switch c.Cart.Backend {
	case BackendFile:
		if c.Cart.Dir == "" {
			return errors.New("cart snapshot directory is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres backend: set MARINE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown cart backend %q", c.Cart.Backend)
	}
	if c.Cart.Key == "" {
		return errors.New("cart snapshot key is required")
	}
	if c.CatalogTimeout <= 0 {
		return errors.Errorf("catalog timeout must be positive, got %s", c.CatalogTimeout)
	}
	return nil
}
