package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rustyeddy/forecast/journal"
	"github.com/spf13/cobra"
)

var projectionsCmd = &cobra.Command{
	Use:   "projections",
	Short: "Read stored projections",
	Long: `Read the projections stored by "scenario calculate".

Subcommands:
  list    - Page through a scenario's monthly records
  summary - Summarize a scenario's stored projections
  export  - Write a scenario's projections to a file

Examples:
  forecast projections list base --offset 12 --limit 12
  forecast projections summary base
  forecast projections export base --format org -o base.org`,
}

var projectionsListCmd = &cobra.Command{
	Use:   "list <scenario-id>",
	Short: "Page through a scenario's monthly records",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectionsList,
}

var projectionsSummaryCmd = &cobra.Command{
	Use:   "summary <scenario-id>",
	Short: "Summarize a scenario's stored projections",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectionsSummary,
}

var projectionsExportCmd = &cobra.Command{
	Use:   "export <scenario-id>",
	Short: "Write a scenario's projections to a file",
	Long: `Export stored projections. The org format writes a full scenario
report with its summary; csv, json and yaml write the monthly records.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectionsExport,
}

var (
	projectionsOffset int
	projectionsLimit  int
	projectionsFormat string
	projectionsOutput string
)

func init() {
	rootCmd.AddCommand(projectionsCmd)
	projectionsCmd.AddCommand(projectionsListCmd)
	projectionsCmd.AddCommand(projectionsSummaryCmd)
	projectionsCmd.AddCommand(projectionsExportCmd)

	projectionsListCmd.Flags().IntVar(&projectionsOffset, "offset", 0, "records to skip")
	projectionsListCmd.Flags().IntVar(&projectionsLimit, "limit", 0, "maximum records (0 for all)")
	projectionsCmd.PersistentFlags().StringVarP(&projectionsFormat, "format", "F", "table", "output format: table, json, yaml, csv, org")
	projectionsExportCmd.Flags().StringVarP(&projectionsOutput, "output", "o", "", "output file (default stdout)")
}

func runProjectionsList(cmd *cobra.Command, args []string) error {
	if err := checkFormat(projectionsFormat); err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	if _, err := j.GetScenario(ctx, args[0]); err != nil {
		return err
	}
	recs, err := j.ListProjections(ctx, args[0], projectionsOffset, projectionsLimit)
	if err != nil {
		return fmt.Errorf("list projections: %w", err)
	}
	return writeProjections(cmd.OutOrStdout(), projectionsFormat, recs)
}

func runProjectionsSummary(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	s, err := j.GetScenario(ctx, args[0])
	if err != nil {
		return err
	}
	sum, err := newService(j).Summary(ctx, args[0])
	if err != nil {
		return err
	}
	return writeSummary(cmd.OutOrStdout(), projectionsFormat, s.Name, sum)
}

func runProjectionsExport(cmd *cobra.Command, args []string) error {
	if err := checkFormat(projectionsFormat); err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	s, err := j.GetScenario(ctx, args[0])
	if err != nil {
		return err
	}
	recs, err := j.ListProjections(ctx, args[0], 0, 0)
	if err != nil {
		return fmt.Errorf("list projections: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if projectionsOutput != "" {
		f, err := os.Create(projectionsOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if projectionsFormat != "org" {
		return writeProjections(out, projectionsFormat, recs)
	}

	sum, err := newService(j).Summary(ctx, args[0])
	if err != nil {
		return err
	}
	doc, err := journal.FormatReportOrg(journal.Report{
		Scenario:    s,
		Summary:     sum,
		Projections: recs,
		Created:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = io.WriteString(out, doc)
	return err
}
