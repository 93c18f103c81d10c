package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/forecast/formula"
	"github.com/rustyeddy/forecast/plan"
	"github.com/rustyeddy/forecast/projection"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func testComponent() plan.Component {
	end := plan.MustParseDate("2025-12-31")
	return plan.Component{
		OwnerID:         "u1",
		Name:            "Salary",
		Category:        plan.Income,
		Formula:         "base / 12",
		Variables:       formula.Vars{"base": formula.Number(decimal.RequireFromString("85000.50")), "title": formula.String("eng")},
		StartDate:       plan.MustParseDate("2024-01-01"),
		EndDate:         &end,
		SeasonalFactors: map[string]decimal.Decimal{"dec": decimal.RequireFromString("1.25")},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	for _, table := range []string{"components", "scenarios", "scenario_components", "projections"} {
		assert.True(t, found[table], table)
	}
}

func TestSQLiteComponents(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	c := testComponent()
	require.NoError(t, j.SaveComponent(ctx, &c))
	require.NotEmpty(t, c.ID)
	assert.Equal(t, plan.Monthly, c.Frequency)

	got, err := j.GetComponent(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Salary", got.Name)
	assert.Equal(t, plan.Income, got.Category)
	assert.Equal(t, plan.Monthly, got.Frequency)
	assert.Equal(t, "85000.5", got.Variables["base"].String())
	s, ok := got.Variables["title"].Str()
	assert.True(t, ok)
	assert.Equal(t, "eng", s)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, "2025-12-31", got.EndDate.String())
	assert.True(t, decimal.RequireFromString("1.25").Equal(got.SeasonalFactors["dec"]))

	c.Name = "Salary v2"
	c.EndDate = nil
	require.NoError(t, j.SaveComponent(ctx, &c))
	got, err = j.GetComponent(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Salary v2", got.Name)
	assert.Nil(t, got.EndDate)

	other := testComponent()
	other.OwnerID = "u2"
	other.Name = "Rent"
	other.Category = plan.Expense
	require.NoError(t, j.SaveComponent(ctx, &other))

	all, err := j.ListComponents(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Rent", all[0].Name)

	mine, err := j.ListComponents(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, c.ID, mine[0].ID)

	byID, err := j.GetComponents(ctx, []string{c.ID, "ghost", other.ID})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
	empty, err := j.GetComponents(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, j.DeleteComponent(ctx, other.ID))
	_, err = j.GetComponent(ctx, other.ID)
	assert.ErrorIs(t, err, ErrComponentNotFound)
	assert.ErrorIs(t, j.DeleteComponent(ctx, other.ID), ErrComponentNotFound)
}

func saveScenario(t *testing.T, j *SQLite) (plan.Scenario, plan.Component) {
	t.Helper()
	ctx := context.Background()

	c := testComponent()
	require.NoError(t, j.SaveComponent(ctx, &c))

	start := plan.MustParseDate("2024-03-01")
	s := plan.Scenario{
		OwnerID:          "u1",
		Name:             "Base",
		IsDefault:        true,
		StartDate:        plan.MustParseDate("2024-01-01"),
		ProjectionMonths: 12,
		LifeEvents: []plan.LifeEvent{
			{Date: plan.MustParseDate("2024-06-01"), Name: "Move", Type: "relocation", Payload: map[string]any{"city": "Oslo"}},
		},
		Components: []plan.ScenarioComponent{{
			ComponentID:       c.ID,
			VariableOverrides: formula.Vars{"base": formula.Int(90000)},
			StartDateOverride: &start,
		}},
	}
	require.NoError(t, j.SaveScenario(ctx, &s))
	require.NotEmpty(t, s.ID)
	return s, c
}

func TestSQLiteScenarios(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()
	s, c := saveScenario(t, j)

	got, err := j.GetScenario(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Base", got.Name)
	assert.True(t, got.IsDefault)
	assert.Equal(t, 12, got.ProjectionMonths)
	require.Len(t, got.LifeEvents, 1)
	assert.Equal(t, "Oslo", got.LifeEvents[0].Payload["city"])
	require.Len(t, got.Components, 1)
	sc := got.Components[0]
	assert.Equal(t, c.ID, sc.ComponentID)
	assert.Equal(t, "90000", sc.VariableOverrides["base"].String())
	require.NotNil(t, sc.StartDateOverride)
	assert.Equal(t, "2024-03-01", sc.StartDateOverride.String())
	assert.Nil(t, sc.EndDateOverride)

	alt := plan.Scenario{OwnerID: "u1", Name: "Alt", IsDefault: true, StartDate: s.StartDate, ProjectionMonths: 6}
	require.NoError(t, j.SaveScenario(ctx, &alt))

	list, err := j.ListScenarios(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alt", list[0].Name, "the default scenario sorts first")
	assert.True(t, list[0].IsDefault)
	assert.False(t, list[1].IsDefault, "only one default per owner")
	assert.Len(t, list[1].Components, 1)

	s.Components = nil
	require.NoError(t, j.SaveScenario(ctx, &s))
	got, err = j.GetScenario(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Components)

	require.NoError(t, j.DeleteScenario(ctx, s.ID))
	_, err = j.GetScenario(ctx, s.ID)
	assert.ErrorIs(t, err, projection.ErrScenarioNotFound)
	assert.ErrorIs(t, j.DeleteScenario(ctx, s.ID), projection.ErrScenarioNotFound)
}

func TestSQLiteScenarioUnknownComponent(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	s := plan.Scenario{
		Name: "Bad", StartDate: plan.MustParseDate("2024-01-01"), ProjectionMonths: 1,
		Components: []plan.ScenarioComponent{{ComponentID: "ghost"}},
	}
	assert.Error(t, j.SaveScenario(context.Background(), &s))

	_, err := j.GetScenario(context.Background(), s.ID)
	assert.ErrorIs(t, err, projection.ErrScenarioNotFound, "failed save is rolled back")
}

func TestSQLiteProjections(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()
	s, _ := saveScenario(t, j)

	svc := projection.NewService(j, projection.NewEngine(formula.NewEngine(formula.DefaultOptions())), nil)
	recs, err := svc.Recalculate(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, recs, 12)
	_, err = svc.Recalculate(ctx, s.ID)
	require.NoError(t, err)

	stored, err := j.ListProjections(ctx, s.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 12)
	for i, r := range stored {
		assert.Equal(t, i+1, r.MonthNumber)
		assert.Equal(t, recs[i].ProjectionDate, r.ProjectionDate)
		assert.True(t, recs[i].TotalIncome.Equal(r.TotalIncome), "month %d", i+1)
		assert.True(t, recs[i].NetWorth.Equal(r.NetWorth))
		assert.Len(t, r.Breakdown, len(recs[i].Breakdown))
	}
	assert.Empty(t, stored[0].Breakdown, "salary starts in march")
	assert.True(t, decimal.NewFromInt(7500).Equal(stored[2].TotalIncome))
	assert.True(t, decimal.NewFromInt(7500).Equal(stored[2].Breakdown["Salary"].Value))
	assert.Len(t, stored[5].ActiveLifeEvents, 1)

	page, err := j.ListProjections(ctx, s.ID, 10, 5)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 11, page[0].MonthNumber)

	sum, err := svc.Summary(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, sum.TotalMonths)

	require.NoError(t, j.DeleteScenario(ctx, s.ID))
	stored, err = j.ListProjections(ctx, s.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, stored, "projections cascade with their scenario")
}

func TestImport(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	c := testComponent()
	c.ID = "salary"
	f := &plan.File{
		Components: []plan.Component{c},
		Scenarios: []plan.Scenario{{
			ID: "base", Name: "Base", StartDate: plan.MustParseDate("2024-01-01"), ProjectionMonths: 3,
			Components: []plan.ScenarioComponent{{ComponentID: "salary"}},
		}},
	}
	nc, ns, err := Import(ctx, j, f)
	require.NoError(t, err)
	assert.Equal(t, 1, nc)
	assert.Equal(t, 1, ns)

	s, err := j.GetScenario(ctx, "base")
	require.NoError(t, err)
	assert.Equal(t, "salary", s.Components[0].ComponentID)

	f.Scenarios[0].Components[0].ComponentID = "ghost"
	_, ns, err = Import(ctx, j, f)
	assert.Error(t, err)
	assert.Equal(t, 0, ns)
}
