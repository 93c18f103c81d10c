package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/rustyeddy/forecast/pkg/id"
	"github.com/spf13/cobra"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "List, calculate, preview and compare stored scenarios",
	Long: `Operate on scenarios stored in the journal.

Subcommands:
  list      - List scenarios
  calculate - Recalculate and store a scenario's projections
  preview   - Project a scenario without storing the result
  compare   - Project two scenarios side by side
  delete    - Remove a scenario and its projections

Examples:
  forecast scenario list
  forecast scenario calculate 01HZX3...
  forecast scenario compare base early-retirement`,
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios",
	Args:  cobra.NoArgs,
	RunE:  runScenarioList,
}

var scenarioCalculateCmd = &cobra.Command{
	Use:   "calculate <scenario-id>",
	Short: "Recalculate and store a scenario's projections",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioCalculate,
}

var scenarioPreviewCmd = &cobra.Command{
	Use:   "preview <scenario-id>",
	Short: "Project a scenario without storing the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioPreview,
}

var scenarioCompareCmd = &cobra.Command{
	Use:   "compare <scenario-id> <scenario-id>",
	Short: "Project two scenarios side by side",
	Args:  cobra.ExactArgs(2),
	RunE:  runScenarioCompare,
}

var scenarioDeleteCmd = &cobra.Command{
	Use:   "delete <scenario-id>",
	Short: "Remove a scenario and its projections",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioDelete,
}

var (
	scenarioOwner  string
	scenarioFormat string
)

func init() {
	rootCmd.AddCommand(scenarioCmd)
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioCalculateCmd)
	scenarioCmd.AddCommand(scenarioPreviewCmd)
	scenarioCmd.AddCommand(scenarioCompareCmd)
	scenarioCmd.AddCommand(scenarioDeleteCmd)

	scenarioListCmd.Flags().StringVar(&scenarioOwner, "owner", "", "only list scenarios of this owner")
	scenarioCmd.PersistentFlags().StringVarP(&scenarioFormat, "format", "F", "table", "output format: table, json, yaml, csv, org")
}

func runScenarioList(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	list, err := j.ListScenarios(cmd.Context(), scenarioOwner)
	if err != nil {
		return fmt.Errorf("list scenarios: %w", err)
	}

	out := cmd.OutOrStdout()
	switch scenarioFormat {
	case "json":
		return writeJSON(out, list)
	case "yaml":
		return writeYAML(out, list)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTART\tMONTHS\tCOMPONENTS\tDEFAULT\tCREATED")
	for _, s := range list {
		def := ""
		if s.IsDefault {
			def = "*"
		}
		// imported scenarios keep their plan ids, which carry no timestamp
		created := "-"
		if t, ok := id.Time(s.ID); ok {
			created = t.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n", s.ID, s.Name, s.StartDate, s.ProjectionMonths, len(s.Components), def, created)
	}
	return tw.Flush()
}

func runScenarioCalculate(cmd *cobra.Command, args []string) error {
	if err := checkFormat(scenarioFormat); err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := newService(j).Recalculate(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeProjections(cmd.OutOrStdout(), scenarioFormat, recs)
}

func runScenarioPreview(cmd *cobra.Command, args []string) error {
	if err := checkFormat(scenarioFormat); err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := newService(j).Preview(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeProjections(cmd.OutOrStdout(), scenarioFormat, recs)
}

func runScenarioCompare(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	cmp, err := newService(j).Compare(cmd.Context(), args...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch scenarioFormat {
	case "json":
		return writeJSON(out, cmp)
	case "yaml":
		return writeYAML(out, cmp)
	}

	for i, c := range cmp {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := writeSummary(out, "table", c.Name, c.Summary); err != nil {
			return err
		}
	}
	a, b := cmp[0].Summary, cmp[1].Summary
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Difference (%s - %s)\n", cmp[1].Name, cmp[0].Name)
	fmt.Fprintf(out, "  Avg cash flow:     %s\n", b.AverageMonthlyCashFlow.Sub(a.AverageMonthlyCashFlow).StringFixed(2))
	fmt.Fprintf(out, "  Final net worth:   %s\n", b.FinalNetWorth.Sub(a.FinalNetWorth).StringFixed(2))
	return nil
}

func runScenarioDelete(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.DeleteScenario(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted scenario %s\n", args[0])
	return nil
}
