package journal

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/forecast/plan"
	"github.com/shopspring/decimal"
)

// Report is everything the Org export needs for one scenario.
type Report struct {
	Scenario    plan.Scenario
	Summary     plan.Summary
	Projections []plan.MonthlyProjection
	Created     time.Time
	Notes       []string
}

var reportFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date": func(d *plan.Date) string {
		if d == nil {
			return "(none)"
		}
		return d.String()
	},
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"short":  shortID,
	"failed": func(r plan.MonthlyProjection) string { return strings.Join(r.Failed(), ", ") },
}

const ReportOrgTemplate = `* SCENARIO: {{.Scenario.Name}} ({{short .Scenario.ID}})
:PROPERTIES:
:SCENARIO_ID: {{.Scenario.ID}}
:START_DATE:  {{.Summary.StartDate}}
:END_DATE:    {{.Summary.EndDate}}
:MONTHS:      {{.Summary.TotalMonths}}
:COMPONENTS:  {{len .Scenario.Components}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:
{{- if .Scenario.Description}}

{{.Scenario.Description}}
{{- end}}

** Summary
- Average income:    *{{money .Summary.AverageMonthlyIncome}}*
- Average expenses:  *{{money .Summary.AverageMonthlyExpenses}}*
- Average cash flow: *{{money .Summary.AverageMonthlyCashFlow}}*
- Final net worth:   *{{money .Summary.FinalNetWorth}}*
- Net worth change:  *{{money .Summary.NetWorthChange}}*
- Best month:        {{date .Summary.BestMonth}}
- Worst month:       {{date .Summary.WorstMonth}}
{{- if .Scenario.LifeEvents}}

** Life Events
{{- range .Scenario.LifeEvents}}
- {{.Date}} {{.Name}}{{if .Type}} ({{.Type}}){{end}}
{{- end}}
{{- end}}

** Months
| Month | Date | Income | Expenses | Cash Flow | Net Worth | Failed |
|-------+------+--------+----------+-----------+-----------+--------|
{{- range .Projections}}
| {{.MonthNumber}} | {{.ProjectionDate}} | {{money .TotalIncome}} | {{money .TotalExpenses}} | {{money .NetCashFlow}} | {{money .NetWorth}} | {{failed .}} |
{{- end}}
{{- if .Notes}}

** Notes
{{- range .Notes}}
- {{.}}
{{- end}}
{{- end}}
`

var reportTemplate = template.Must(template.New("report").Funcs(reportFuncs).Parse(ReportOrgTemplate))

// FormatReportOrg renders a scenario report as an Org-mode document.
func FormatReportOrg(r Report) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatMonthOrg renders one month as an Org heading with its totals in a
// PROPERTIES drawer and the component breakdown as a list.
func FormatMonthOrg(p plan.MonthlyProjection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Month %d: %s\n", p.MonthNumber, p.ProjectionDate)
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":SCENARIO_ID: %s\n", p.ScenarioID)
	fmt.Fprintf(&b, ":INCOME: %s\n", p.TotalIncome.StringFixed(2))
	fmt.Fprintf(&b, ":EXPENSES: %s\n", p.TotalExpenses.StringFixed(2))
	fmt.Fprintf(&b, ":NET_CASH_FLOW: %s\n", p.NetCashFlow.StringFixed(2))
	fmt.Fprintf(&b, ":ASSETS: %s\n", p.TotalAssets.StringFixed(2))
	fmt.Fprintf(&b, ":LIABILITIES: %s\n", p.TotalLiabilities.StringFixed(2))
	fmt.Fprintf(&b, ":NET_WORTH: %s\n", p.NetWorth.StringFixed(2))
	b.WriteString(":END:\n")

	keys := make([]string, 0, len(p.Breakdown))
	for k := range p.Breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := p.Breakdown[k]
		if e.Error != "" {
			fmt.Fprintf(&b, "- %s (%s): ERROR %s\n", k, e.Category, e.Error)
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", k, e.Category, e.Value.StringFixed(2))
	}
	return b.String()
}

// FormatMonthsOrg renders multiple months separated by blank lines.
func FormatMonthsOrg(recs []plan.MonthlyProjection) string {
	var b strings.Builder
	for i, r := range recs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatMonthOrg(r))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
