// Package plan holds the records a projection is computed from and the
// records it produces.
package plan

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rustyeddy/forecast/formula"
	"github.com/shopspring/decimal"
)

var ErrInvalid = errors.New("invalid plan")

type Category string

const (
	Income    Category = "income"
	Expense   Category = "expense"
	Asset     Category = "asset"
	Liability Category = "liability"
)

func (c Category) Valid() bool {
	switch c {
	case Income, Expense, Asset, Liability:
		return true
	}
	return false
}

type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
	OneTime   Frequency = "one-time"
)

func (f Frequency) Valid() bool {
	switch f {
	case Monthly, Quarterly, Yearly, OneTime:
		return true
	}
	return false
}

// Component is a named financial item evaluated once per active month.
type Component struct {
	ID              string                     `json:"id" yaml:"id"`
	OwnerID         string                     `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	Name            string                     `json:"name" yaml:"name"`
	Description     string                     `json:"description,omitempty" yaml:"description,omitempty"`
	Category        Category                   `json:"category" yaml:"category"`
	Formula         string                     `json:"formula" yaml:"formula"`
	Variables       formula.Vars               `json:"variables,omitempty" yaml:"variables,omitempty"`
	StartDate       Date                       `json:"start_date" yaml:"start_date"`
	EndDate         *Date                      `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Frequency       Frequency                  `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	SeasonalFactors map[string]decimal.Decimal `json:"seasonal_factors,omitempty" yaml:"seasonal_factors,omitempty"`
}

// Normalize fills the default frequency and lowercases seasonal keys.
func (c *Component) Normalize() {
	if c.Frequency == "" {
		c.Frequency = Monthly
	}
	if len(c.SeasonalFactors) == 0 {
		return
	}
	sf := make(map[string]decimal.Decimal, len(c.SeasonalFactors))
	for k, v := range c.SeasonalFactors {
		sf[strings.ToLower(strings.TrimSpace(k))] = v
	}
	c.SeasonalFactors = sf
}

// Validate checks the record shape. Formula safety is checked separately by
// the formula engine.
func (c *Component) Validate(maxFormulaLen int) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: component name is required", ErrInvalid)
	}
	if !c.Category.Valid() {
		return fmt.Errorf("%w: component %q: category must be one of income, expense, asset, liability", ErrInvalid, c.Name)
	}
	if c.Frequency != "" && !c.Frequency.Valid() {
		return fmt.Errorf("%w: component %q: frequency must be one of monthly, quarterly, yearly, one-time", ErrInvalid, c.Name)
	}
	if strings.TrimSpace(c.Formula) == "" {
		return fmt.Errorf("%w: component %q: formula is required", ErrInvalid, c.Name)
	}
	if maxFormulaLen > 0 && utf8.RuneCountInString(c.Formula) > maxFormulaLen {
		return fmt.Errorf("%w: component %q: formula too long (max %d characters)", ErrInvalid, c.Name, maxFormulaLen)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: component %q: start_date is required", ErrInvalid, c.Name)
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: component %q: end_date is before start_date", ErrInvalid, c.Name)
	}
	for k := range c.SeasonalFactors {
		if !validAbbrev(strings.ToLower(k)) {
			return fmt.Errorf("%w: component %q: unknown seasonal month %q", ErrInvalid, c.Name, k)
		}
	}
	return nil
}

func validAbbrev(k string) bool {
	for _, a := range MonthAbbrevs {
		if a == k {
			return true
		}
	}
	return false
}

// ScenarioComponent attaches a component to a scenario. Date overrides
// replace the component's own dates; variable overrides are merged over its
// defaults.
type ScenarioComponent struct {
	ComponentID       string       `json:"component_id" yaml:"component_id"`
	VariableOverrides formula.Vars `json:"variable_overrides,omitempty" yaml:"variable_overrides,omitempty"`
	StartDateOverride *Date        `json:"start_date_override,omitempty" yaml:"start_date_override,omitempty"`
	EndDateOverride   *Date        `json:"end_date_override,omitempty" yaml:"end_date_override,omitempty"`
}

// LifeEvent is a dated annotation carried into every month on or after its
// date.
type LifeEvent struct {
	Date    Date           `json:"date" yaml:"date"`
	Name    string         `json:"name" yaml:"name"`
	Type    string         `json:"type,omitempty" yaml:"type,omitempty"`
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

type Scenario struct {
	ID               string              `json:"id" yaml:"id"`
	OwnerID          string              `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	Name             string              `json:"name" yaml:"name"`
	Description      string              `json:"description,omitempty" yaml:"description,omitempty"`
	IsDefault        bool                `json:"is_default,omitempty" yaml:"is_default,omitempty"`
	StartDate        Date                `json:"start_date" yaml:"start_date"`
	ProjectionMonths int                 `json:"projection_months" yaml:"projection_months"`
	LifeEvents       []LifeEvent         `json:"life_events,omitempty" yaml:"life_events,omitempty"`
	Components       []ScenarioComponent `json:"components,omitempty" yaml:"components,omitempty"`
}

// Normalize applies the default horizon when none is set.
func (s *Scenario) Normalize(defaultMonths int) {
	if s.ProjectionMonths == 0 {
		s.ProjectionMonths = defaultMonths
	}
}

func (s *Scenario) Validate(maxMonths int) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: scenario name is required", ErrInvalid)
	}
	if s.StartDate.IsZero() {
		return fmt.Errorf("%w: scenario %q: start_date is required", ErrInvalid, s.Name)
	}
	if s.ProjectionMonths < 1 || s.ProjectionMonths > maxMonths {
		return fmt.Errorf("%w: scenario %q: projection_months must be between 1 and %d", ErrInvalid, s.Name, maxMonths)
	}
	for i, ev := range s.LifeEvents {
		if ev.Date.IsZero() {
			return fmt.Errorf("%w: scenario %q: life event %d has no date", ErrInvalid, s.Name, i+1)
		}
	}
	seen := make(map[string]bool, len(s.Components))
	for _, sc := range s.Components {
		if sc.ComponentID == "" {
			return fmt.Errorf("%w: scenario %q: component_id is required", ErrInvalid, s.Name)
		}
		if seen[sc.ComponentID] {
			return fmt.Errorf("%w: scenario %q: component %s attached twice", ErrInvalid, s.Name, sc.ComponentID)
		}
		seen[sc.ComponentID] = true
		if sc.StartDateOverride != nil && sc.EndDateOverride != nil && sc.EndDateOverride.Before(*sc.StartDateOverride) {
			return fmt.Errorf("%w: scenario %q: component %s end override is before start override", ErrInvalid, s.Name, sc.ComponentID)
		}
	}
	return nil
}
