package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rustyeddy/forecast/formula"
	"github.com/rustyeddy/forecast/projection"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the complete forecast configuration
type Config struct {
	Formula    formula.Options  `json:"formula" yaml:"formula"`
	Projection ProjectionConfig `json:"projection" yaml:"projection"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// ProjectionConfig bounds scenario horizons and sets month parallelism
type ProjectionConfig struct {
	MaxMonths     int `json:"max_months" yaml:"max_months"`
	DefaultMonths int `json:"default_months" yaml:"default_months"`
	Workers       int `json:"workers" yaml:"workers"`
}

// JournalConfig locates the SQLite store
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Unset keys keep their defaults.
	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Formula.MaxLength <= 0 {
		return fmt.Errorf("formula.max_length must be positive")
	}
	if c.Formula.MaxDepth <= 0 {
		return fmt.Errorf("formula.max_depth must be positive")
	}
	if c.Formula.Precision <= 0 || c.Formula.Precision > 32 {
		return fmt.Errorf("formula.precision must be between 1 and 32")
	}
	if c.Formula.MaxExponent <= 0 {
		return fmt.Errorf("formula.max_exponent must be positive")
	}
	if c.Projection.MaxMonths <= 0 {
		return fmt.Errorf("projection.max_months must be positive")
	}
	if c.Projection.DefaultMonths <= 0 || c.Projection.DefaultMonths > c.Projection.MaxMonths {
		return fmt.Errorf("projection.default_months must be between 1 and %d", c.Projection.MaxMonths)
	}
	if c.Projection.Workers <= 0 {
		return fmt.Errorf("projection.workers must be positive")
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// FormulaEngine builds the formula engine described by the configuration
func (c *Config) FormulaEngine() *formula.Engine {
	return formula.NewEngine(c.Formula)
}

// ProjectionEngine builds a projection engine over the configured formula
// engine.
func (c *Config) ProjectionEngine(log logrus.FieldLogger) *projection.Engine {
	return projection.NewEngine(c.FormulaEngine(),
		projection.WithWorkers(c.Projection.Workers),
		projection.WithPrecision(c.Formula.Precision),
		projection.WithLogger(log),
	)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Formula: formula.DefaultOptions(),
		Projection: ProjectionConfig{
			MaxMonths:     120,
			DefaultMonths: 60,
			Workers:       1,
		},
		Journal: JournalConfig{
			DBPath: "./forecast.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
