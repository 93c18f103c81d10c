package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/forecast/plan"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMonthOrg(t *testing.T) {
	t.Parallel()

	result := FormatMonthOrg(sampleMonths()[0])

	assert.True(t, strings.HasPrefix(result, "** Month 1: 2024-01-01\n"))
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":SCENARIO_ID: 01HSCENARIO")
	assert.Contains(t, result, ":INCOME: 5000.00")
	assert.Contains(t, result, ":EXPENSES: 1500.56")
	assert.Contains(t, result, ":NET_WORTH: 10000.00")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "- Salary (income): 5000.00")
	assert.Contains(t, result, "- Broken (expense): ERROR division by zero")

	// breakdown is listed in key order
	assert.Less(t, strings.Index(result, "- Bad"), strings.Index(result, "- Broken"))
	assert.Less(t, strings.Index(result, "- Rent"), strings.Index(result, "- Salary"))
}

func TestFormatMonthsOrg(t *testing.T) {
	t.Parallel()

	result := FormatMonthsOrg(sampleMonths())
	assert.Equal(t, 2, strings.Count(result, "** Month "))
	assert.Contains(t, result, "\n\n** Month 2: 2024-02-01")
	assert.Empty(t, FormatMonthsOrg(nil))
}

func TestFormatReportOrg(t *testing.T) {
	t.Parallel()

	best := plan.MustParseDate("2024-02-01")
	worst := plan.MustParseDate("2024-01-01")
	r := Report{
		Scenario: plan.Scenario{
			ID:          "01HSCENARIOLONGID",
			Name:        "Base case",
			Description: "Stay put, keep the job.",
			LifeEvents:  []plan.LifeEvent{{Date: plan.MustParseDate("2024-06-01"), Name: "Move", Type: "relocation"}},
			Components:  []plan.ScenarioComponent{{ComponentID: "c1"}, {ComponentID: "c2"}},
		},
		Summary: plan.Summary{
			StartDate:              plan.MustParseDate("2024-01-01"),
			EndDate:                plan.MustParseDate("2024-02-01"),
			TotalMonths:            2,
			AverageMonthlyIncome:   decimal.RequireFromString("5000"),
			AverageMonthlyExpenses: decimal.RequireFromString("750.2775"),
			AverageMonthlyCashFlow: decimal.RequireFromString("4249.7225"),
			FinalNetWorth:          decimal.RequireFromString("-250.5"),
			NetWorthChange:         decimal.RequireFromString("-10250.5"),
			BestMonth:              &best,
			WorstMonth:             &worst,
		},
		Projections: sampleMonths(),
		Created:     time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		Notes:       []string{"check the rent formula"},
	}

	out, err := FormatReportOrg(r)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "* SCENARIO: Base case (01HSCENA)\n"))
	assert.Contains(t, out, ":SCENARIO_ID: 01HSCENARIOLONGID")
	assert.Contains(t, out, ":MONTHS:      2")
	assert.Contains(t, out, ":COMPONENTS:  2")
	assert.Contains(t, out, ":CREATED:     [2024-03-15 Fri 10:30]")
	assert.Contains(t, out, "Stay put, keep the job.")
	assert.Contains(t, out, "- Average expenses:  *750.28*")
	assert.Contains(t, out, "- Final net worth:   *-250.50*")
	assert.Contains(t, out, "- Best month:        2024-02-01")
	assert.Contains(t, out, "- 2024-06-01 Move (relocation)")
	assert.Contains(t, out, "| 1 | 2024-01-01 | 5000.00 | 1500.56 | 3499.45 | 10000.00 | Bad, Broken |")
	assert.Contains(t, out, "| 2 | 2024-02-01 | 5000.00 | 0.00 | 5000.00 | -250.50 |  |")
	assert.Contains(t, out, "** Notes\n- check the rent formula")
}

func TestFormatReportOrgMinimal(t *testing.T) {
	t.Parallel()

	out, err := FormatReportOrg(Report{Scenario: plan.Scenario{ID: "s", Name: "Empty"}})
	require.NoError(t, err)
	assert.Contains(t, out, "* SCENARIO: Empty (s)")
	assert.Contains(t, out, "- Best month:        (none)")
	assert.NotContains(t, out, "** Life Events")
	assert.NotContains(t, out, "** Notes")
}
