package projection

import (
	"errors"

	"github.com/rustyeddy/forecast/plan"
	"github.com/shopspring/decimal"
)

var ErrNoProjections = errors.New("no projections found for scenario")

// summaryPlaces is the precision of summary averages.
const summaryPlaces = 16

// Summarize condenses records ordered by month number. Best and worst
// months are by net cash flow; ties go to the earliest month.
func Summarize(recs []plan.MonthlyProjection) (plan.Summary, error) {
	if len(recs) == 0 {
		return plan.Summary{}, ErrNoProjections
	}

	var income, expenses, cash decimal.Decimal
	best, worst := 0, 0
	for i, r := range recs {
		income = income.Add(r.TotalIncome)
		expenses = expenses.Add(r.TotalExpenses)
		cash = cash.Add(r.NetCashFlow)
		if r.NetCashFlow.GreaterThan(recs[best].NetCashFlow) {
			best = i
		}
		if r.NetCashFlow.LessThan(recs[worst].NetCashFlow) {
			worst = i
		}
	}

	n := decimal.NewFromInt(int64(len(recs)))
	first, last := recs[0], recs[len(recs)-1]
	bestDate, worstDate := recs[best].ProjectionDate, recs[worst].ProjectionDate
	return plan.Summary{
		StartDate:              first.ProjectionDate,
		EndDate:                last.ProjectionDate,
		TotalMonths:            len(recs),
		AverageMonthlyIncome:   income.DivRound(n, summaryPlaces),
		AverageMonthlyExpenses: expenses.DivRound(n, summaryPlaces),
		AverageMonthlyCashFlow: cash.DivRound(n, summaryPlaces),
		FinalNetWorth:          last.NetWorth,
		NetWorthChange:         last.NetWorth.Sub(first.NetWorth),
		BestMonth:              &bestDate,
		WorstMonth:             &worstDate,
	}, nil
}
