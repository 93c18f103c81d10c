// journal/csv.go
package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rustyeddy/forecast/plan"
)

var projectionHeader = []string{
	"month_number", "projection_date",
	"total_income", "total_expenses", "net_cash_flow",
	"total_assets", "total_liabilities", "net_worth",
	"failed_components",
}

// WriteProjectionsCSV writes one row per month. Amounts are rendered with
// two decimal places; failed_components lists breakdown keys joined by ';'.
func WriteProjectionsCSV(w io.Writer, recs []plan.MonthlyProjection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(projectionHeader); err != nil {
		return err
	}
	for _, r := range recs {
		err := cw.Write([]string{
			strconv.Itoa(r.MonthNumber),
			r.ProjectionDate.String(),
			r.TotalIncome.StringFixed(2),
			r.TotalExpenses.StringFixed(2),
			r.NetCashFlow.StringFixed(2),
			r.TotalAssets.StringFixed(2),
			r.TotalLiabilities.StringFixed(2),
			r.NetWorth.StringFixed(2),
			strings.Join(r.Failed(), ";"),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
