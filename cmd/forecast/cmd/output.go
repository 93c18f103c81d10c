package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/rustyeddy/forecast/journal"
	"github.com/rustyeddy/forecast/plan"
	"gopkg.in/yaml.v3"
)

var formats = []string{"table", "json", "yaml", "csv", "org"}

func checkFormat(f string) error {
	for _, v := range formats {
		if f == v {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want one of %s)", f, strings.Join(formats, ", "))
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeProjections(w io.Writer, format string, recs []plan.MonthlyProjection) error {
	switch format {
	case "json":
		return writeJSON(w, recs)
	case "yaml":
		return writeYAML(w, recs)
	case "csv":
		return journal.WriteProjectionsCSV(w, recs)
	case "org":
		_, err := io.WriteString(w, journal.FormatMonthsOrg(recs))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MONTH\tDATE\tINCOME\tEXPENSES\tCASH FLOW\tASSETS\tLIABILITIES\tNET WORTH\tFAILED\t")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.MonthNumber, r.ProjectionDate,
			r.TotalIncome.StringFixed(2), r.TotalExpenses.StringFixed(2), r.NetCashFlow.StringFixed(2),
			r.TotalAssets.StringFixed(2), r.TotalLiabilities.StringFixed(2), r.NetWorth.StringFixed(2),
			strings.Join(r.Failed(), ","))
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, format string, name string, s plan.Summary) error {
	switch format {
	case "json":
		return writeJSON(w, s)
	case "yaml":
		return writeYAML(w, s)
	}

	fmt.Fprintf(w, "Scenario: %s\n", name)
	fmt.Fprintf(w, "  Period:            %s to %s (%d months)\n", s.StartDate, s.EndDate, s.TotalMonths)
	fmt.Fprintf(w, "  Avg income:        %s\n", s.AverageMonthlyIncome.StringFixed(2))
	fmt.Fprintf(w, "  Avg expenses:      %s\n", s.AverageMonthlyExpenses.StringFixed(2))
	fmt.Fprintf(w, "  Avg cash flow:     %s\n", s.AverageMonthlyCashFlow.StringFixed(2))
	fmt.Fprintf(w, "  Final net worth:   %s\n", s.FinalNetWorth.StringFixed(2))
	fmt.Fprintf(w, "  Net worth change:  %s\n", s.NetWorthChange.StringFixed(2))
	if s.BestMonth != nil {
		fmt.Fprintf(w, "  Best month:        %s\n", s.BestMonth)
	}
	if s.WorstMonth != nil {
		fmt.Fprintf(w, "  Worst month:       %s\n", s.WorstMonth)
	}
	return nil
}
