package cmd

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/forecast/journal"
	"github.com/rustyeddy/forecast/plan"
	"github.com/rustyeddy/forecast/projection"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Work with plan files",
	Long: `A plan file is a YAML or JSON document listing components and the
scenarios that attach them.

Subcommands:
  import - Validate a plan file and store it in the journal
  run    - Project the scenarios of a plan file without storing anything

Examples:
  forecast plan import plan.yaml
  forecast plan run plan.yaml --scenario base --format csv`,
}

var planImportCmd = &cobra.Command{
	Use:   "import <plan-file>",
	Short: "Validate a plan file and store it in the journal",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanImport,
}

var planRunCmd = &cobra.Command{
	Use:   "run <plan-file>",
	Short: "Project the scenarios of a plan file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanRun,
}

var (
	planScenario  string
	planFormat    string
	planRecompute bool
)

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planImportCmd)
	planCmd.AddCommand(planRunCmd)

	planImportCmd.Flags().BoolVar(&planRecompute, "calculate", false, "recalculate every imported scenario")
	planRunCmd.Flags().StringVarP(&planScenario, "scenario", "s", "", "only run the scenario with this ID")
	planRunCmd.Flags().StringVarP(&planFormat, "format", "F", "table", "output format: table, json, yaml, csv, org")
}

func loadPlan(path string) (*plan.File, error) {
	f, err := plan.LoadFile(path)
	if err != nil {
		return nil, err
	}
	f.Normalize(cfg.Projection.DefaultMonths)
	if err := f.Validate(cfg.Formula.MaxLength, cfg.Projection.MaxMonths); err != nil {
		return nil, err
	}
	return f, nil
}

func runPlanImport(cmd *cobra.Command, args []string) error {
	f, err := loadPlan(args[0])
	if err != nil {
		return err
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	nc, ns, err := journal.Import(ctx, j, f)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Imported %d components and %d scenarios into %s\n", nc, ns, cfg.Journal.DBPath)

	if planRecompute {
		svc := newService(j)
		for _, s := range f.Scenarios {
			recs, err := svc.Recalculate(ctx, s.ID)
			if err != nil {
				return fmt.Errorf("calculate %s: %w", s.ID, err)
			}
			fmt.Fprintf(out, "  %s (%s): %d months\n", s.Name, s.ID, len(recs))
		}
	}
	return nil
}

func runPlanRun(cmd *cobra.Command, args []string) error {
	if err := checkFormat(planFormat); err != nil {
		return err
	}
	f, err := loadPlan(args[0])
	if err != nil {
		return err
	}

	engine := cfg.ProjectionEngine(logger)
	comps := f.ComponentMap()
	out := cmd.OutOrStdout()
	ran := 0
	for _, s := range f.Scenarios {
		if planScenario != "" && s.ID != planScenario {
			continue
		}
		recs, err := engine.Project(cmd.Context(), s, comps)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", s.ID, err)
		}
		if planFormat == "table" {
			fmt.Fprintf(out, "== %s (%s)\n", s.Name, s.ID)
		}
		if err := writeProjections(out, planFormat, recs); err != nil {
			return err
		}
		if planFormat == "table" {
			sum, err := projection.Summarize(recs)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			if err := writeSummary(out, planFormat, s.Name, sum); err != nil {
				return err
			}
		}
		ran++
	}
	if ran == 0 {
		if planScenario == "" {
			return errors.New("plan has no scenarios")
		}
		return fmt.Errorf("%w: %s", projection.ErrScenarioNotFound, planScenario)
	}
	return nil
}
