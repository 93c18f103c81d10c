package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/forecast/formula"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var formulaCmd = &cobra.Command{
	Use:   "formula",
	Short: "Validate and evaluate formulas",
	Long: `Work with component formulas outside of a scenario.

Subcommands:
  validate  - Check a formula against the sandbox rules
  eval      - Evaluate a formula with variables
  test      - Evaluate a formula against several variable sets
  functions - List the callable functions

Examples:
  forecast formula validate "base * 1.03 ** year"
  forecast formula eval "base / 12" --var base=85000
  forecast formula test "pmt(rate, n, -loan)" --case '{rate: 0.05, n: 360, loan: 300000}'`,
}

var formulaValidateCmd = &cobra.Command{
	Use:   "validate <formula>",
	Short: "Check a formula against the sandbox rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormulaValidate,
}

var formulaEvalCmd = &cobra.Command{
	Use:   "eval <formula>",
	Short: "Evaluate a formula with variables",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormulaEval,
}

var formulaTestCmd = &cobra.Command{
	Use:   "test <formula>",
	Short: "Evaluate a formula against several variable sets",
	Long: `Evaluate a formula once per test case. Cases are YAML (or JSON)
mappings given with --case, or a YAML list of mappings in --cases-file.`,
	Args: cobra.ExactArgs(1),
	RunE: runFormulaTest,
}

var formulaFunctionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the callable functions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range formula.Functions() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

var (
	formulaVars      []string
	formulaCases     []string
	formulaCasesFile string
	formulaFormat    string
)

func init() {
	rootCmd.AddCommand(formulaCmd)
	formulaCmd.AddCommand(formulaValidateCmd)
	formulaCmd.AddCommand(formulaEvalCmd)
	formulaCmd.AddCommand(formulaTestCmd)
	formulaCmd.AddCommand(formulaFunctionsCmd)

	formulaEvalCmd.Flags().StringArrayVar(&formulaVars, "var", nil, "variable as name=value (repeatable)")
	formulaTestCmd.Flags().StringArrayVar(&formulaCases, "case", nil, "test case as a YAML mapping (repeatable)")
	formulaTestCmd.Flags().StringVar(&formulaCasesFile, "cases-file", "", "YAML file holding a list of test cases")
	formulaTestCmd.Flags().StringVarP(&formulaFormat, "format", "F", "table", "output format: table, json, yaml")
}

// parseVars reads name=value pairs. Values are YAML scalars, so 12, 0.05,
// true and 'text' keep their types.
func parseVars(pairs []string) (formula.Vars, error) {
	vars := make(formula.Vars, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("variable %q: want name=value", p)
		}
		var v formula.Value
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		vars[name] = v
	}
	return vars, nil
}

func runFormulaValidate(cmd *cobra.Command, args []string) error {
	if err := cfg.FormulaEngine().Validate(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Formula is valid")
	return nil
}

func runFormulaEval(cmd *cobra.Command, args []string) error {
	vars, err := parseVars(formulaVars)
	if err != nil {
		return err
	}
	d, err := cfg.FormulaEngine().Evaluate(args[0], vars)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), d.String())
	return nil
}

func loadCases() ([]formula.Vars, error) {
	var cases []formula.Vars
	if formulaCasesFile != "" {
		data, err := os.ReadFile(formulaCasesFile)
		if err != nil {
			return nil, fmt.Errorf("read cases file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cases); err != nil {
			return nil, fmt.Errorf("parse cases file: %w", err)
		}
	}
	for i, c := range formulaCases {
		var vars formula.Vars
		if err := yaml.Unmarshal([]byte(c), &vars); err != nil {
			return nil, fmt.Errorf("case %d: %w", i+1, err)
		}
		cases = append(cases, vars)
	}
	if len(cases) == 0 {
		cases = append(cases, formula.Vars{})
	}
	return cases, nil
}

func runFormulaTest(cmd *cobra.Command, args []string) error {
	cases, err := loadCases()
	if err != nil {
		return err
	}
	results := cfg.FormulaEngine().TestFormula(args[0], cases)

	out := cmd.OutOrStdout()
	switch formulaFormat {
	case "json":
		return writeJSON(out, results)
	case "yaml":
		return writeYAML(out, results)
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			fmt.Fprintf(out, "case %d: error: %s\n", r.Case, r.Error)
			continue
		}
		fmt.Fprintf(out, "case %d: %s\n", r.Case, r.Result)
	}
	fmt.Fprintf(out, "%d passed, %d failed\n", len(results)-failed, failed)
	return nil
}
