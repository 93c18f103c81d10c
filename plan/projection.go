package plan

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BreakdownEntry is one component's contribution to a month. Error is set
// when the component failed and contributed zero.
type BreakdownEntry struct {
	Value       decimal.Decimal `json:"value" yaml:"value"`
	Category    Category        `json:"category" yaml:"category"`
	ComponentID string          `json:"component_id" yaml:"component_id"`
	Error       string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// MonthlyProjection is one simulated month. Records are never modified
// after the engine emits them.
type MonthlyProjection struct {
	ScenarioID       string                    `json:"scenario_id" yaml:"scenario_id"`
	ProjectionDate   Date                      `json:"projection_date" yaml:"projection_date"`
	MonthNumber      int                       `json:"month_number" yaml:"month_number"`
	TotalIncome      decimal.Decimal           `json:"total_income" yaml:"total_income"`
	TotalExpenses    decimal.Decimal           `json:"total_expenses" yaml:"total_expenses"`
	NetCashFlow      decimal.Decimal           `json:"net_cash_flow" yaml:"net_cash_flow"`
	TotalAssets      decimal.Decimal           `json:"total_assets" yaml:"total_assets"`
	TotalLiabilities decimal.Decimal           `json:"total_liabilities" yaml:"total_liabilities"`
	NetWorth         decimal.Decimal           `json:"net_worth" yaml:"net_worth"`
	Breakdown        map[string]BreakdownEntry `json:"component_breakdown" yaml:"component_breakdown"`
	ActiveLifeEvents []LifeEvent               `json:"active_life_events,omitempty" yaml:"active_life_events,omitempty"`
}

// Failed lists the breakdown keys whose evaluation failed.
func (p MonthlyProjection) Failed() []string {
	var out []string
	for k, e := range p.Breakdown {
		if e.Error != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Summary condenses a projection run.
type Summary struct {
	StartDate              Date            `json:"start_date" yaml:"start_date"`
	EndDate                Date            `json:"end_date" yaml:"end_date"`
	TotalMonths            int             `json:"total_months" yaml:"total_months"`
	AverageMonthlyIncome   decimal.Decimal `json:"average_monthly_income" yaml:"average_monthly_income"`
	AverageMonthlyExpenses decimal.Decimal `json:"average_monthly_expenses" yaml:"average_monthly_expenses"`
	AverageMonthlyCashFlow decimal.Decimal `json:"average_monthly_cash_flow" yaml:"average_monthly_cash_flow"`
	FinalNetWorth          decimal.Decimal `json:"final_net_worth" yaml:"final_net_worth"`
	NetWorthChange         decimal.Decimal `json:"net_worth_change" yaml:"net_worth_change"`
	BestMonth              *Date           `json:"best_month,omitempty" yaml:"best_month,omitempty"`
	WorstMonth             *Date           `json:"worst_month,omitempty" yaml:"worst_month,omitempty"`
}
