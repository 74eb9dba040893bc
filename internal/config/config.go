package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dfornika/irida/types"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "irida.yml"

	EnvGalaxyURL     = "IRIDA_GALAXY_URL"
	EnvGalaxyAPIKey  = "IRIDA_GALAXY_API_KEY"
	EnvGalaxyTimeout = "IRIDA_GALAXY_TIMEOUT"
	EnvConcurrency   = "IRIDA_CONCURRENCY"
)

// DefaultProvenanceDB is used when storage.provenance_db is unset.
var DefaultProvenanceDB = filepath.Join(".irida", "provenance.db")

// LoadConfig reads and validates an irida.yml. Environment variables
// override the file.
func LoadConfig(filename string) (*types.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}

	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	if cfg.Storage.ProvenanceDB == "" {
		cfg.Storage.ProvenanceDB = DefaultProvenanceDB
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("validation error in %s: %w", filename, err)
	}
	return &cfg, nil
}

func applyEnv(cfg *types.Config, getenv func(string) string) error {
	if v := getenv(EnvGalaxyURL); v != "" {
		cfg.Galaxy.URL = v
	}
	if v := getenv(EnvGalaxyAPIKey); v != "" {
		cfg.Galaxy.APIKey = v
	}
	if v := getenv(EnvGalaxyTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvGalaxyTimeout, err)
		}
		cfg.Galaxy.Timeout = d
	}
	if v := getenv(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvConcurrency, err)
		}
		cfg.Config.Concurrency = n
	}
	return nil
}

func ValidateConfig(cfg *types.Config) error {
	var errs []string

	if cfg.Galaxy.URL == "" {
		errs = append(errs, "field 'galaxy.url' is required")
	} else if u, err := url.Parse(cfg.Galaxy.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("field 'galaxy.url' %q must be an absolute URL", cfg.Galaxy.URL))
	}
	if cfg.Galaxy.APIKey == "" {
		errs = append(errs, fmt.Sprintf("field 'galaxy.api_key' is required (or set %s)", EnvGalaxyAPIKey))
	}
	if cfg.Galaxy.Timeout < 0 {
		errs = append(errs, "field 'galaxy.timeout' cannot be negative")
	}
	if cfg.Config.Concurrency < 0 {
		errs = append(errs, "field 'config.concurrency' cannot be negative")
	}
	if u := cfg.Storage.RecordsURL; u != "" && !strings.Contains(u, "://") {
		errs = append(errs, fmt.Sprintf("field 'storage.records_url' %q must be a bucket URL such as file:///path or s3://bucket", u))
	}

	if len(errs) > 0 {
		return errors.New("irida configuration validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
