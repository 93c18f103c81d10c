package cmd

import (
	"fmt"

	"github.com/rustyeddy/forecast/config"
	"github.com/rustyeddy/forecast/journal"
	"github.com/rustyeddy/forecast/pkg/logging"
	"github.com/rustyeddy/forecast/projection"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Monthly financial projections driven by sandboxed formulas",
	Long: `Forecast projects personal finances month by month.

Income, expenses, assets and liabilities are components whose monthly
value is a small arithmetic formula. Scenarios attach components, override
their variables and dates, and are projected over a horizon of months.

It provides tools for:
  - Validating and evaluating formulas in a closed sandbox
  - Importing plan files into a SQLite journal
  - Recalculating, previewing and comparing scenarios
  - Exporting projections as CSV, JSON, YAML or Org-mode`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile  string
	dbPath   string
	logLevel string

	cfg    *config.Config
	logger *logrus.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite journal DB (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	c := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		c = loaded
	}
	if dbPath != "" {
		c.Journal.DBPath = dbPath
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	cfg = c
	logger = logging.New(c.Log, cmd.ErrOrStderr())
	return nil
}

func openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func newService(j journal.Journal) *projection.Service {
	return projection.NewService(j, cfg.ProjectionEngine(logger), logger)
}
