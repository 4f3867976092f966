// Package config resolves API and warehouse credentials from the process
// environment, falling back to a local .env file for keys the environment
// leaves unset.
package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names consumed by Load.
const (
	EnvAPIToken          = "API_TOKEN"
	EnvAPIURL            = "API_URL"
	EnvWarehouseAccount  = "WAREHOUSE_ACCOUNT"
	EnvWarehouseUser     = "WAREHOUSE_USER"
	EnvWarehousePassword = "WAREHOUSE_PASSWORD"
	EnvWarehouseDriver   = "WAREHOUSE_DRIVER"
	EnvWarehouseDatabase = "WAREHOUSE_DATABASE"
	EnvStageBucket       = "STAGE_BUCKET"
)

// Config is the immutable configuration record for one run.
type Config struct {
	APIToken string
	APIURL   string

	// Warehouse connection credentials. These are not validated at load
	// time; a missing credential surfaces later as a connection error.
	WarehouseAccount  string
	WarehouseUser     string
	WarehousePassword string

	// WarehouseDriver selects the database/sql driver: "postgres" (default)
	// or "sqlite" for local development.
	WarehouseDriver   string
	WarehouseDatabase string

	// StageBucket is the cloud storage bucket backing the raw landing stage.
	StageBucket string
}

// Load resolves configuration with environment variables taking priority.
// If the two API keys are incomplete in the environment, the envFile
// (typically ".env") is consulted to fill only the still-missing keys;
// values already present in the environment are never overridden. Load
// fails when the API token or API URL remains unset after both sources.
func Load(envFile string) (*Config, error) {
	cfg := &Config{
		APIToken:          os.Getenv(EnvAPIToken),
		APIURL:            os.Getenv(EnvAPIURL),
		WarehouseAccount:  os.Getenv(EnvWarehouseAccount),
		WarehouseUser:     os.Getenv(EnvWarehouseUser),
		WarehousePassword: os.Getenv(EnvWarehousePassword),
		WarehouseDriver:   os.Getenv(EnvWarehouseDriver),
		WarehouseDatabase: os.Getenv(EnvWarehouseDatabase),
		StageBucket:       os.Getenv(EnvStageBucket),
	}

	if cfg.APIToken == "" || cfg.APIURL == "" {
		if vars, err := godotenv.Read(envFile); err == nil {
			fill := func(dst *string, key string) {
				if *dst == "" {
					*dst = vars[key]
				}
			}
			fill(&cfg.APIToken, EnvAPIToken)
			fill(&cfg.APIURL, EnvAPIURL)
			fill(&cfg.WarehouseAccount, EnvWarehouseAccount)
			fill(&cfg.WarehouseUser, EnvWarehouseUser)
			fill(&cfg.WarehousePassword, EnvWarehousePassword)
			fill(&cfg.WarehouseDriver, EnvWarehouseDriver)
			fill(&cfg.WarehouseDatabase, EnvWarehouseDatabase)
			fill(&cfg.StageBucket, EnvStageBucket)
		}
	}

	if cfg.APIToken == "" {
		return nil, fmt.Errorf("missing required config value %s", EnvAPIToken)
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("missing required config value %s", EnvAPIURL)
	}

	if cfg.WarehouseDriver == "" {
		cfg.WarehouseDriver = "postgres"
	}
	if cfg.WarehouseDatabase == "" {
		cfg.WarehouseDatabase = "dev_db"
	}

	return cfg, nil
}

// DSN builds the database/sql data source name for the configured driver.
// For postgres the warehouse account is the host; for sqlite it is the
// database file path.
func (c *Config) DSN() string {
	switch c.WarehouseDriver {
	case "sqlite":
		if c.WarehouseAccount != "" {
			return c.WarehouseAccount
		}
		return "data/warehouse.db"
	default:
		return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=require",
			url.QueryEscape(c.WarehouseUser),
			url.QueryEscape(c.WarehousePassword),
			c.WarehouseAccount,
			c.WarehouseDatabase)
	}
}
