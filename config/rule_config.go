package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

const (
	// AdapterPGX connects through a pgx.Pool.
	AdapterPGX = "pgx"
	// AdapterSQL connects through database/sql with lib/pq.
	AdapterSQL = "sql"
	// AdapterSQLX connects through sqlx with lib/pq.
	AdapterSQLX = "sqlx"
	// AdapterSQLite connects through database/sql with modernc.org/sqlite.
	AdapterSQLite = "sqlite"

	EnvForceAlways = "MINQTY_FORCE_ALWAYS"
	EnvEpsilon     = "MINQTY_EPSILON"
	EnvLocale      = "MINQTY_LOCALE"
	EnvDSN         = "MINQTY_DSN"
	EnvAdapter     = "MINQTY_ADAPTER"
)

var ErrReadingConfigFailed = errors.New("reading config file failed")
var ErrDecodingConfigFailed = errors.New("decoding config file failed")
var ErrUnsupportedConfigFormat = errors.New("unsupported config file format")
var ErrInvalidEnvironmentValue = errors.New("invalid environment value")
var ErrForceAlwaysNotConfigured = errors.New("force_always must be configured explicitly")
var ErrUnsupportedAdapter = errors.New("unsupported database adapter")
var ErrMissingDSN = errors.New("dsn must not be empty")

// RuleConfig is the external configuration of the rule and its catalog connection.
type RuleConfig struct {
	// ForceAlways is nil until configured.
	ForceAlways *bool   `json:"force_always" yaml:"force_always"`
	Epsilon     float64 `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`
	// Locale is a BCP 47 tag selecting the fallback number format, e.g. "pt-PT".
	Locale  string `json:"locale,omitempty" yaml:"locale,omitempty"`
	DSN     string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Adapter string `json:"adapter,omitempty" yaml:"adapter,omitempty"`
}

// Load reads the file at path, when path is not empty, and applies the process environment.
func Load(path string) (RuleConfig, error) {
	var cfg RuleConfig

	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return RuleConfig{}, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return RuleConfig{}, err
	}

	return cfg, nil
}

// LoadFile reads a JSON (.json) or YAML (.yaml, .yml) config file.
func LoadFile(path string) (RuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleConfig{}, errors.Join(ErrReadingConfigFailed, err)
	}

	return Decode(filepath.Ext(path), data)
}

// Decode parses data in the format named by ext.
func Decode(ext string, data []byte) (RuleConfig, error) {
	var cfg RuleConfig
	var err error

	switch strings.ToLower(ext) {
	case ".json":
		err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return RuleConfig{}, fmt.Errorf("%w: %q", ErrUnsupportedConfigFormat, ext)
	}

	if err != nil {
		return RuleConfig{}, errors.Join(ErrDecodingConfigFailed, err)
	}

	return cfg, nil
}

// ApplyEnv overrides the fields whose MINQTY_ variable lookup finds.
func (c *RuleConfig) ApplyEnv(lookup func(key string) (string, bool)) error {
	if v, ok := lookup(EnvForceAlways); ok {
		forceAlways, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnvironmentValue, EnvForceAlways, v)
		}

		c.ForceAlways = &forceAlways
	}

	if v, ok := lookup(EnvEpsilon); ok {
		epsilon, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnvironmentValue, EnvEpsilon, v)
		}

		c.Epsilon = epsilon
	}

	if v, ok := lookup(EnvLocale); ok {
		c.Locale = strings.TrimSpace(v)
	}

	if v, ok := lookup(EnvDSN); ok {
		c.DSN = v
	}

	if v, ok := lookup(EnvAdapter); ok {
		c.Adapter = strings.TrimSpace(v)
	}

	return nil
}

// Validate checks the rule settings. The connection settings are checked when connecting.
func (c RuleConfig) Validate() error {
	if c.ForceAlways == nil {
		return ErrForceAlwaysNotConfigured
	}

	if math.IsNaN(c.Epsilon) || math.IsInf(c.Epsilon, 0) || c.Epsilon < 0 {
		return quantityrule.ErrInvalidEpsilon
	}

	if c.Locale != "" {
		if _, err := quantityrule.NumberFormatForLocale(c.Locale); err != nil {
			return err
		}
	}

	switch c.AdapterOrDefault() {
	case AdapterPGX, AdapterSQL, AdapterSQLX, AdapterSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAdapter, c.Adapter)
	}

	return nil
}

// Policy validates c and builds the handler policy from it.
func (c RuleConfig) Policy() (quantityrule.Policy, error) {
	if err := c.Validate(); err != nil {
		return quantityrule.Policy{}, err
	}

	policy := quantityrule.Policy{
		ForceAlways: *c.ForceAlways,
		Epsilon:     c.Epsilon,
	}

	if c.Locale != "" {
		format, err := quantityrule.NumberFormatForLocale(c.Locale)
		if err != nil {
			return quantityrule.Policy{}, err
		}

		policy.FallbackFormat = format
	}

	return policy, nil
}

// FallbackFormat returns the number format selected by Locale, or the default fallback.
func (c RuleConfig) FallbackFormat() (quantityrule.NumberFormat, error) {
	if c.Locale == "" {
		return quantityrule.DefaultFallbackNumberFormat, nil
	}

	return quantityrule.NumberFormatForLocale(c.Locale)
}

// AdapterOrDefault returns Adapter, or AdapterPGX when it is empty.
func (c RuleConfig) AdapterOrDefault() string {
	if c.Adapter == "" {
		return AdapterPGX
	}

	return strings.ToLower(c.Adapter)
}
