package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
	"github.com/rrbz/excel-insight-creator/internal/ingest"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Global configuration structure.
type Global struct {
	// Classification
	SampleSize       int     `mapstructure:"sample_size" yaml:"sample_size"`
	NumericThreshold float64 `mapstructure:"numeric_threshold" yaml:"numeric_threshold"`

	// Charts and tables
	DefaultCap     int    `mapstructure:"default_cap" yaml:"default_cap"`
	CoercionPolicy string `mapstructure:"coercion_policy" yaml:"coercion_policy"`
	PageSize       int    `mapstructure:"page_size" yaml:"page_size"`

	// Ingestion
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	Sheet       string `mapstructure:"sheet" yaml:"sheet"`

	// Service
	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"sample_size", "numeric_threshold", "default_cap", "coercion_policy",
	"page_size", "max_upload_mb", "sheet", "serve_addr", "log_level",
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		SampleSize:       analysis.DefaultSampleSize,
		NumericThreshold: analysis.DefaultNumericThreshold,
		DefaultCap:       analysis.DefaultCap,
		CoercionPolicy:   "zero",
		PageSize:         analysis.DefaultPageSize,
		MaxUploadMB:      10,
		ServeAddr:        ":8080",
		LogLevel:         "info",
	}
}

// Dir returns ~/.insight.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".insight"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.insight/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.insight/config.yaml) > defaults.
// A .env file in the working directory is loaded first when present; it never
// overrides variables already set in the environment.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("INSIGHT")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("sample_size", d.SampleSize)
	v.SetDefault("numeric_threshold", d.NumericThreshold)
	v.SetDefault("default_cap", d.DefaultCap)
	v.SetDefault("coercion_policy", d.CoercionPolicy)
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("max_upload_mb", d.MaxUploadMB)
	v.SetDefault("sheet", d.Sheet)
	v.SetDefault("serve_addr", d.ServeAddr)
	v.SetDefault("log_level", d.LogLevel)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges.
func (c *Global) Validate() error {
	if c.SampleSize <= 0 {
		return fmt.Errorf("%w: sample_size must be > 0, got %d", ErrInvalid, c.SampleSize)
	}
	if c.NumericThreshold <= 0 || c.NumericThreshold >= 1 {
		return fmt.Errorf("%w: numeric_threshold must be in (0,1), got %g", ErrInvalid, c.NumericThreshold)
	}
	if err := analysis.ValidateCap(c.DefaultCap); err != nil {
		return fmt.Errorf("%w: default_cap: %w", ErrInvalid, err)
	}
	if _, err := analysis.ParsePolicy(c.CoercionPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be > 0, got %d", ErrInvalid, c.PageSize)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: max_upload_mb must be > 0, got %d", ErrInvalid, c.MaxUploadMB)
	}
	return nil
}

// Classifier builds the column classifier from the sampling settings.
func (c *Global) Classifier() analysis.Classifier {
	return analysis.Classifier{SampleSize: c.SampleSize, Threshold: c.NumericThreshold}
}

// Aggregator builds the chart aggregator. Validate has already accepted the
// policy, so an unknown one here falls back to the zero policy.
func (c *Global) Aggregator() analysis.Aggregator {
	p, _ := analysis.ParsePolicy(c.CoercionPolicy)
	return analysis.Aggregator{Policy: p, Classifier: c.Classifier()}
}

// IngestOptions builds decoding options from the upload limit and sheet.
func (c *Global) IngestOptions() ingest.Options {
	return ingest.Options{Sheet: c.Sheet, MaxBytes: int64(c.MaxUploadMB) << 20}
}

// Set parses val into the field named by key and validates the result. On
// error c is left unchanged.
func (c *Global) Set(key, val string) error {
	next := *c
	switch key {
	case "sample_size":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for sample_size: %w", err)
		}
		next.SampleSize = i
	case "numeric_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for numeric_threshold: %w", err)
		}
		next.NumericThreshold = f
	case "default_cap":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for default_cap: %w", err)
		}
		next.DefaultCap = i
	case "coercion_policy":
		p, err := analysis.ParsePolicy(val)
		if err != nil {
			return err
		}
		next.CoercionPolicy = p.String()
	case "page_size":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for page_size: %w", err)
		}
		next.PageSize = i
	case "max_upload_mb":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for max_upload_mb: %w", err)
		}
		next.MaxUploadMB = i
	case "sheet":
		next.Sheet = val
	case "serve_addr":
		next.ServeAddr = val
	case "log_level":
		next.LogLevel = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Get returns the display form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "sample_size":
		return strconv.Itoa(c.SampleSize), nil
	case "numeric_threshold":
		return strconv.FormatFloat(c.NumericThreshold, 'g', -1, 64), nil
	case "default_cap":
		return strconv.Itoa(c.DefaultCap), nil
	case "coercion_policy":
		return c.CoercionPolicy, nil
	case "page_size":
		return strconv.Itoa(c.PageSize), nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	case "sheet":
		return c.Sheet, nil
	case "serve_addr":
		return c.ServeAddr, nil
	case "log_level":
		return c.LogLevel, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}
