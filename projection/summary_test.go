package projection

import (
	"testing"

	"github.com/rustyeddy/forecast/plan"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(m int, income, expenses, worth string) plan.MonthlyProjection {
	in, ex := d(income), d(expenses)
	return plan.MonthlyProjection{
		ProjectionDate: plan.MustParseDate("2024-01-15").AddMonths(m - 1),
		MonthNumber:    m,
		TotalIncome:    in,
		TotalExpenses:  ex,
		NetCashFlow:    in.Sub(ex),
		NetWorth:       d(worth),
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrNoProjections)

	recs := []plan.MonthlyProjection{
		rec(1, "100", "50", "1000"),
		rec(2, "300", "50", "1200"),
		rec(3, "300", "50", "900"),
		rec(4, "0", "100", "800"),
		rec(5, "0", "100", "850"),
	}
	sum, err := Summarize(recs)
	require.NoError(t, err)

	assert.Equal(t, 5, sum.TotalMonths)
	assert.Equal(t, "2024-01-15", sum.StartDate.String())
	assert.Equal(t, "2024-05-15", sum.EndDate.String())
	assertDecimal(t, "140", sum.AverageMonthlyIncome)
	assertDecimal(t, "70", sum.AverageMonthlyExpenses)
	assertDecimal(t, "70", sum.AverageMonthlyCashFlow)
	assertDecimal(t, "850", sum.FinalNetWorth)
	assertDecimal(t, "-150", sum.NetWorthChange)

	require.NotNil(t, sum.BestMonth)
	require.NotNil(t, sum.WorstMonth)
	assert.Equal(t, "2024-02-15", sum.BestMonth.String(), "ties go to the earliest month")
	assert.Equal(t, "2024-04-15", sum.WorstMonth.String())
}

func TestSummarizeRepeatingAverage(t *testing.T) {
	t.Parallel()

	sum, err := Summarize([]plan.MonthlyProjection{
		rec(1, "1", "0", "0"),
		rec(2, "1", "0", "0"),
		rec(3, "0", "0", "0"),
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.6666666666666667").Equal(sum.AverageMonthlyIncome), sum.AverageMonthlyIncome.String())
	assert.Equal(t, sum.StartDate, *sum.BestMonth)
	assert.Equal(t, "2024-03-15", sum.WorstMonth.String())
}
