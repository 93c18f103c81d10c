package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/forecast/pkg/id"
	"github.com/rustyeddy/forecast/plan"
)

const componentColumns = `id, owner_id, name, description, category, formula, variables, start_date, end_date, frequency, seasonal_factors`

// SaveComponent inserts or updates c. An empty ID is assigned a new ULID.
func (j *SQLite) SaveComponent(ctx context.Context, c *plan.Component) error {
	if c.ID == "" {
		c.ID = id.New()
	}
	c.Normalize()

	vars, err := encode(c.Variables)
	if err != nil {
		return fmt.Errorf("encode variables: %w", err)
	}
	factors, err := encode(c.SeasonalFactors)
	if err != nil {
		return fmt.Errorf("encode seasonal factors: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO components (`+componentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			formula = excluded.formula,
			variables = excluded.variables,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			frequency = excluded.frequency,
			seasonal_factors = excluded.seasonal_factors,
			updated_at = CURRENT_TIMESTAMP`,
		c.ID, c.OwnerID, c.Name, c.Description, string(c.Category), c.Formula, vars,
		c.StartDate, dateArg(c.EndDate), string(c.Frequency), factors,
	)
	if err != nil {
		return fmt.Errorf("save component %s: %w", c.ID, err)
	}
	return nil
}

func scanComponent(r scanner) (plan.Component, error) {
	var (
		c       plan.Component
		vars    string
		factors string
		end     plan.Date
	)
	err := r.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.Category, &c.Formula,
		&vars, &c.StartDate, &end, &c.Frequency, &factors)
	if err != nil {
		return plan.Component{}, err
	}
	if err := decode(vars, &c.Variables); err != nil {
		return plan.Component{}, fmt.Errorf("component %s variables: %w", c.ID, err)
	}
	if err := decode(factors, &c.SeasonalFactors); err != nil {
		return plan.Component{}, fmt.Errorf("component %s seasonal factors: %w", c.ID, err)
	}
	c.EndDate = datePtr(end)
	return c, nil
}

// GetComponent returns a single component by ID.
func (j *SQLite) GetComponent(ctx context.Context, componentID string) (plan.Component, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+componentColumns+` FROM components WHERE id = ?`, componentID)
	c, err := scanComponent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return plan.Component{}, fmt.Errorf("%w: %s", ErrComponentNotFound, componentID)
	}
	return c, err
}

// GetComponents loads the components named by ids. Unknown IDs are absent
// from the result.
func (j *SQLite) GetComponents(ctx context.Context, ids []string) (map[string]plan.Component, error) {
	out := make(map[string]plan.Component, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, v := range ids {
		args[i] = v
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := j.db.QueryContext(ctx, `SELECT `+componentColumns+` FROM components WHERE id IN (`+marks+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// ListComponents returns the components of ownerID ordered by name. An
// empty ownerID lists every component.
func (j *SQLite) ListComponents(ctx context.Context, ownerID string) ([]plan.Component, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+componentColumns+`
		FROM components
		WHERE ? = '' OR owner_id = ?
		ORDER BY name ASC, id ASC`, ownerID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteComponent removes the component and detaches it from every
// scenario.
func (j *SQLite) DeleteComponent(ctx context.Context, componentID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM components WHERE id = ?`, componentID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrComponentNotFound, componentID)
	}
	return nil
}
