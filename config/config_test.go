package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 1000, cfg.Formula.MaxLength)
	assert.Equal(t, 64, cfg.Formula.MaxDepth)
	assert.Equal(t, int32(16), cfg.Formula.Precision)
	assert.Equal(t, 120, cfg.Projection.MaxMonths)
	assert.Equal(t, 60, cfg.Projection.DefaultMonths)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero max length",
			mutate:  func(c *Config) { c.Formula.MaxLength = 0 },
			wantErr: true,
			errMsg:  "formula.max_length must be positive",
		},
		{
			name:    "zero depth",
			mutate:  func(c *Config) { c.Formula.MaxDepth = 0 },
			wantErr: true,
			errMsg:  "formula.max_depth must be positive",
		},
		{
			name:    "precision too high",
			mutate:  func(c *Config) { c.Formula.Precision = 40 },
			wantErr: true,
			errMsg:  "formula.precision must be between 1 and 32",
		},
		{
			name:    "zero exponent cap",
			mutate:  func(c *Config) { c.Formula.MaxExponent = 0 },
			wantErr: true,
			errMsg:  "formula.max_exponent must be positive",
		},
		{
			name:    "zero max months",
			mutate:  func(c *Config) { c.Projection.MaxMonths = 0 },
			wantErr: true,
			errMsg:  "projection.max_months must be positive",
		},
		{
			name:    "default beyond max",
			mutate:  func(c *Config) { c.Projection.DefaultMonths = 121 },
			wantErr: true,
			errMsg:  "projection.default_months must be between 1 and 120",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Projection.Workers = 0 },
			wantErr: true,
			errMsg:  "projection.workers must be positive",
		},
		{
			name:    "missing db path",
			mutate:  func(c *Config) { c.Journal.DBPath = "" },
			wantErr: true,
			errMsg:  "journal.db_path is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: true,
			errMsg:  "log.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
			errMsg:  "log.format must be 'text' or 'json'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
		{"yml format", ".yml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Projection.Workers = 4
			cfg.Log.Format = "json"
			path := filepath.Join(tmpDir, "test"+tt.ext)

			err := cfg.SaveToFile(path)
			require.NoError(t, err)

			_, err = os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg.Formula, loaded.Formula)
			assert.Equal(t, cfg.Projection, loaded.Projection)
			assert.Equal(t, cfg.Journal, loaded.Journal)
			assert.Equal(t, cfg.Log, loaded.Log)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projection:\n  workers: 8\njournal:\n  db_path: /tmp/x.db\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Projection.Workers)
	assert.Equal(t, 120, cfg.Projection.MaxMonths)
	assert.Equal(t, "/tmp/x.db", cfg.Journal.DBPath)
	assert.Equal(t, 1000, cfg.Formula.MaxLength)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projection:\n  workers: 0\n"), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestEngines(t *testing.T) {
	cfg := Default()
	cfg.Formula.MaxLength = 5

	_, err := cfg.FormulaEngine().Compile("1 + 2 + 3")
	assert.Error(t, err)

	assert.NotNil(t, cfg.ProjectionEngine(nil))
}
