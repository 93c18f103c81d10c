package plan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rustyeddy/forecast/formula"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salary() Component {
	return Component{
		ID:        "c1",
		Name:      "Salary",
		Category:  Income,
		Formula:   "base / 12",
		Variables: formula.Vars{"base": formula.Int(60000)},
		StartDate: MustParseDate("2024-01-01"),
	}
}

func TestComponentValidate(t *testing.T) {
	t.Parallel()

	end := MustParseDate("2023-01-01")
	tests := []struct {
		name   string
		mutate func(c *Component)
		errMsg string
	}{
		{"valid", func(c *Component) {}, ""},
		{"missing name", func(c *Component) { c.Name = " " }, "name is required"},
		{"bad category", func(c *Component) { c.Category = "savings" }, "category must be one of"},
		{"bad frequency", func(c *Component) { c.Frequency = "weekly" }, "frequency must be one of"},
		{"missing formula", func(c *Component) { c.Formula = "" }, "formula is required"},
		{"formula too long", func(c *Component) { c.Formula = strings.Repeat("1", 11) }, "formula too long"},
		{"missing start", func(c *Component) { c.StartDate = Date{} }, "start_date is required"},
		{"end before start", func(c *Component) { c.EndDate = &end }, "end_date is before start_date"},
		{"bad seasonal key", func(c *Component) {
			c.SeasonalFactors = map[string]decimal.Decimal{"december": decimal.NewFromInt(2)}
		}, "unknown seasonal month"},
		{"seasonal key case", func(c *Component) {
			c.SeasonalFactors = map[string]decimal.Decimal{"Dec": decimal.NewFromInt(2)}
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := salary()
			tt.mutate(&c)
			err := c.Validate(10)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestComponentNormalize(t *testing.T) {
	t.Parallel()

	c := salary()
	c.SeasonalFactors = map[string]decimal.Decimal{" DEC ": decimal.NewFromInt(2)}
	c.Normalize()

	assert.Equal(t, Monthly, c.Frequency)
	assert.Contains(t, c.SeasonalFactors, "dec")
	assert.Len(t, c.SeasonalFactors, 1)
}

func TestScenarioValidate(t *testing.T) {
	t.Parallel()

	start := MustParseDate("2024-06-01")
	early := MustParseDate("2024-01-01")
	base := func() Scenario {
		return Scenario{
			Name:       "Base",
			StartDate:  MustParseDate("2024-01-01"),
			Components: []ScenarioComponent{{ComponentID: "c1"}},
		}
	}

	s := base()
	s.Normalize(60)
	assert.Equal(t, 60, s.ProjectionMonths)
	assert.NoError(t, s.Validate(120))

	tests := []struct {
		name   string
		mutate func(s *Scenario)
		errMsg string
	}{
		{"months too large", func(s *Scenario) { s.ProjectionMonths = 121 }, "between 1 and 120"},
		{"months negative", func(s *Scenario) { s.ProjectionMonths = -1 }, "between 1 and 120"},
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing start", func(s *Scenario) { s.StartDate = Date{} }, "start_date is required"},
		{"undated event", func(s *Scenario) { s.LifeEvents = []LifeEvent{{Name: "baby"}} }, "has no date"},
		{"duplicate component", func(s *Scenario) {
			s.Components = append(s.Components, ScenarioComponent{ComponentID: "c1"})
		}, "attached twice"},
		{"empty component id", func(s *Scenario) {
			s.Components = []ScenarioComponent{{}}
		}, "component_id is required"},
		{"inverted overrides", func(s *Scenario) {
			s.Components[0].StartDateOverride = &start
			s.Components[0].EndDateOverride = &early
		}, "end override is before start override"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			s.ProjectionMonths = 12
			tt.mutate(&s)
			err := s.Validate(120)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

const planYAML = `
components:
  - id: salary
    name: Salary
    category: income
    formula: base_salary / 12
    variables:
      base_salary: 85000.50
    start_date: 2024-01-01
  - id: bonus
    name: Bonus
    category: income
    formula: amount
    frequency: yearly
    variables:
      amount: 1200
    start_date: 2024-01-01
    end_date: 2025-12-31
    seasonal_factors:
      jan: 1.5
scenarios:
  - id: base
    name: Base case
    start_date: 2024-01-31
    life_events:
      - date: 2024-06-01
        name: New job
        type: job_change
        payload:
          employer: Acme
    components:
      - component_id: salary
        variable_overrides:
          base_salary: 90000
      - component_id: bonus
        end_date_override: 2024-12-31
`

func TestLoadFileYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planYAML), 0644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	f.Normalize(60)
	require.NoError(t, f.Validate(1000, 120))

	require.Len(t, f.Components, 2)
	sal := f.Components[0]
	assert.Equal(t, Monthly, sal.Frequency)
	assert.Equal(t, "85000.5", sal.Variables["base_salary"].String())

	bonus := f.Components[1]
	assert.Equal(t, Yearly, bonus.Frequency)
	require.NotNil(t, bonus.EndDate)
	assert.Equal(t, "2025-12-31", bonus.EndDate.String())
	assert.True(t, decimal.RequireFromString("1.5").Equal(bonus.SeasonalFactors["jan"]))

	require.Len(t, f.Scenarios, 1)
	s := f.Scenarios[0]
	assert.Equal(t, 60, s.ProjectionMonths)
	assert.Equal(t, "2024-01-31", s.StartDate.String())
	require.Len(t, s.LifeEvents, 1)
	assert.Equal(t, "Acme", s.LifeEvents[0].Payload["employer"])
	require.Len(t, s.Components, 2)
	assert.Equal(t, "90000", s.Components[0].VariableOverrides["base_salary"].String())
	require.NotNil(t, s.Components[1].EndDateOverride)

	assert.Len(t, f.ComponentMap(), 2)
}

func TestPlanFileRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(src, []byte(planYAML), 0644))
	f, err := LoadFile(src)
	require.NoError(t, err)

	for _, name := range []string{"out.json", "out.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, f.SaveToFile(path))

		got, err := LoadFile(path)
		require.NoError(t, err, name)
		require.Len(t, got.Components, 2)
		assert.Equal(t, "85000.5", got.Components[0].Variables["base_salary"].String(), name)
		assert.Equal(t, f.Scenarios[0].StartDate, got.Scenarios[0].StartDate, name)
		assert.True(t, f.Components[1].SeasonalFactors["jan"].Equal(got.Components[1].SeasonalFactors["jan"]), name)
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("components: [\n"), 0644))
	_, err = LoadFile(path)
	assert.Error(t, err)

	dup := &File{Components: []Component{salary(), salary()}}
	assert.ErrorIs(t, dup.Validate(1000, 120), ErrInvalid)
}

func TestExamplePlan(t *testing.T) {
	t.Parallel()

	f, err := LoadFile(filepath.Join("..", "examples", "plan.yaml"))
	require.NoError(t, err)
	f.Normalize(60)
	require.NoError(t, f.Validate(1000, 120))

	assert.Len(t, f.Scenarios, 2)
	comps := f.ComponentMap()
	for _, s := range f.Scenarios {
		for _, sc := range s.Components {
			assert.Contains(t, comps, sc.ComponentID, "scenario %s", s.ID)
		}
	}
}
