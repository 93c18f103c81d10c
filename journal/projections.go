package journal

import (
	"context"
	"fmt"

	"github.com/rustyeddy/forecast/plan"
)

const projectionColumns = `scenario_id, month_number, projection_date, total_income, total_expenses,
	net_cash_flow, total_assets, total_liabilities, net_worth, component_breakdown, active_life_events`

// ReplaceProjections swaps the stored projection set of a scenario in a
// single transaction. Readers see either the old set or the new one.
func (j *SQLite) ReplaceProjections(ctx context.Context, scenarioID string, recs []plan.MonthlyProjection) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM projections WHERE scenario_id = ?`, scenarioID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO projections (`+projectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		breakdown, err := encode(r.Breakdown)
		if err != nil {
			return fmt.Errorf("encode breakdown for month %d: %w", r.MonthNumber, err)
		}
		events, err := encode(r.ActiveLifeEvents)
		if err != nil {
			return fmt.Errorf("encode life events for month %d: %w", r.MonthNumber, err)
		}
		if _, err := stmt.ExecContext(ctx,
			scenarioID, r.MonthNumber, r.ProjectionDate,
			r.TotalIncome, r.TotalExpenses, r.NetCashFlow,
			r.TotalAssets, r.TotalLiabilities, r.NetWorth,
			breakdown, events,
		); err != nil {
			return fmt.Errorf("insert month %d: %w", r.MonthNumber, err)
		}
	}

	return tx.Commit()
}

// ListProjections returns stored projections ordered by month number. A
// limit of zero or less returns every record from offset on.
func (j *SQLite) ListProjections(ctx context.Context, scenarioID string, offset, limit int) ([]plan.MonthlyProjection, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT `+projectionColumns+`
		FROM projections
		WHERE scenario_id = ?
		ORDER BY month_number ASC
		LIMIT ? OFFSET ?`, scenarioID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.MonthlyProjection
	for rows.Next() {
		var (
			r                 plan.MonthlyProjection
			breakdown, events string
		)
		if err := rows.Scan(&r.ScenarioID, &r.MonthNumber, &r.ProjectionDate,
			&r.TotalIncome, &r.TotalExpenses, &r.NetCashFlow,
			&r.TotalAssets, &r.TotalLiabilities, &r.NetWorth,
			&breakdown, &events); err != nil {
			return nil, err
		}
		if err := decode(breakdown, &r.Breakdown); err != nil {
			return nil, fmt.Errorf("month %d breakdown: %w", r.MonthNumber, err)
		}
		if err := decode(events, &r.ActiveLifeEvents); err != nil {
			return nil, fmt.Errorf("month %d life events: %w", r.MonthNumber, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
