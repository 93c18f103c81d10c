package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rustyeddy/forecast/pkg/id"
	"github.com/rustyeddy/forecast/plan"
	"github.com/rustyeddy/forecast/projection"
)

const scenarioColumns = `id, owner_id, name, description, is_default, start_date, projection_months, life_events`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SaveScenario inserts or updates s and replaces its component list in
// one transaction. Saving a default scenario clears the flag on the
// owner's other scenarios.
func (j *SQLite) SaveScenario(ctx context.Context, s *plan.Scenario) error {
	if s.ID == "" {
		s.ID = id.New()
	}
	events, err := encode(s.LifeEvents)
	if err != nil {
		return fmt.Errorf("encode life events: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scenarios (`+scenarioColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			description = excluded.description,
			is_default = excluded.is_default,
			start_date = excluded.start_date,
			projection_months = excluded.projection_months,
			life_events = excluded.life_events,
			updated_at = CURRENT_TIMESTAMP`,
		s.ID, s.OwnerID, s.Name, s.Description, s.IsDefault, s.StartDate, s.ProjectionMonths, events,
	)
	if err != nil {
		return fmt.Errorf("save scenario %s: %w", s.ID, err)
	}

	if s.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE scenarios SET is_default = 0 WHERE owner_id = ? AND id <> ?`, s.OwnerID, s.ID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scenario_components WHERE scenario_id = ?`, s.ID); err != nil {
		return err
	}
	for i, sc := range s.Components {
		overrides, err := encode(sc.VariableOverrides)
		if err != nil {
			return fmt.Errorf("encode overrides for %s: %w", sc.ComponentID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scenario_components
			(scenario_id, component_id, position, variable_overrides, start_date_override, end_date_override)
			VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID, sc.ComponentID, i, overrides, dateArg(sc.StartDateOverride), dateArg(sc.EndDateOverride),
		)
		if err != nil {
			return fmt.Errorf("attach component %s: %w", sc.ComponentID, err)
		}
	}

	return tx.Commit()
}

func scanScenario(r scanner) (plan.Scenario, error) {
	var (
		s      plan.Scenario
		events string
	)
	if err := r.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.IsDefault,
		&s.StartDate, &s.ProjectionMonths, &events); err != nil {
		return plan.Scenario{}, err
	}
	if err := decode(events, &s.LifeEvents); err != nil {
		return plan.Scenario{}, fmt.Errorf("scenario %s life events: %w", s.ID, err)
	}
	return s, nil
}

func attachments(ctx context.Context, q querier, scenarioID string) ([]plan.ScenarioComponent, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT component_id, variable_overrides, start_date_override, end_date_override
		FROM scenario_components
		WHERE scenario_id = ?
		ORDER BY position ASC`, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.ScenarioComponent
	for rows.Next() {
		var (
			sc         plan.ScenarioComponent
			overrides  string
			start, end plan.Date
		)
		if err := rows.Scan(&sc.ComponentID, &overrides, &start, &end); err != nil {
			return nil, err
		}
		if err := decode(overrides, &sc.VariableOverrides); err != nil {
			return nil, fmt.Errorf("overrides for %s: %w", sc.ComponentID, err)
		}
		sc.StartDateOverride = datePtr(start)
		sc.EndDateOverride = datePtr(end)
		out = append(out, sc)
	}
	return out, rows.Err()
}

// GetScenario returns the scenario with its attached components in
// attachment order.
func (j *SQLite) GetScenario(ctx context.Context, scenarioID string) (plan.Scenario, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = ?`, scenarioID)
	s, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return plan.Scenario{}, fmt.Errorf("%w: %s", projection.ErrScenarioNotFound, scenarioID)
	}
	if err != nil {
		return plan.Scenario{}, err
	}
	if s.Components, err = attachments(ctx, j.db, s.ID); err != nil {
		return plan.Scenario{}, err
	}
	return s, nil
}

// ListScenarios returns the scenarios of ownerID, default first. An empty
// ownerID lists every scenario.
func (j *SQLite) ListScenarios(ctx context.Context, ownerID string) ([]plan.Scenario, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+scenarioColumns+`
		FROM scenarios
		WHERE ? = '' OR owner_id = ?
		ORDER BY is_default DESC, name ASC, id ASC`, ownerID, ownerID)
	if err != nil {
		return nil, err
	}

	var out []plan.Scenario
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The pool holds a single connection, so attachments load only after
	// the scenario rows are released.
	for i := range out {
		if out[i].Components, err = attachments(ctx, j.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeleteScenario removes the scenario together with its attachments and
// stored projections.
func (j *SQLite) DeleteScenario(ctx context.Context, scenarioID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, scenarioID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", projection.ErrScenarioNotFound, scenarioID)
	}
	return nil
}
