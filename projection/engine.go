// Package projection simulates a scenario month by month.
package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/forecast/finance"
	"github.com/rustyeddy/forecast/formula"
	"github.com/rustyeddy/forecast/plan"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Evaluator compiles and runs component formulas. *formula.Engine
// satisfies it.
type Evaluator interface {
	Compile(src string) (*formula.Program, error)
	Run(p *formula.Program, vars formula.Vars) (decimal.Decimal, error)
}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	eval      Evaluator
	workers   int
	precision int32
	log       logrus.FieldLogger
}

type Option func(*Engine)

// WithWorkers computes up to n months concurrently. Results do not depend
// on n.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithPrecision sets the decimal places kept after frequency division.
func WithPrecision(p int32) Option {
	return func(e *Engine) {
		if p > 0 {
			e.precision = p
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func NewEngine(eval Evaluator, opts ...Option) *Engine {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	e := &Engine{eval: eval, workers: 1, precision: 16, log: l}
	for _, o := range opts {
		o(e)
	}
	return e
}

// attached is a scenario component resolved against its record, with the
// formula compiled once for the whole run.
type attached struct {
	key        string
	comp       plan.Component
	sc         plan.ScenarioComponent
	start      plan.Date
	end        *plan.Date
	prog       *formula.Program
	compileErr error
}

func (a *attached) active(d plan.Date) bool {
	if d.Before(a.start) {
		return false
	}
	return a.end == nil || !d.After(*a.end)
}

// Project computes one record per month of the scenario horizon, ordered
// by month number. Component failures are recorded in the breakdown and
// never abort the run.
func (e *Engine) Project(ctx context.Context, s plan.Scenario, components map[string]plan.Component) ([]plan.MonthlyProjection, error) {
	if s.ProjectionMonths < 1 {
		return nil, fmt.Errorf("%w: scenario %q has no projection months", plan.ErrInvalid, s.Name)
	}
	if s.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: scenario %q has no start date", plan.ErrInvalid, s.Name)
	}

	list := e.resolve(s, components)
	out := make([]plan.MonthlyProjection, s.ProjectionMonths)

	if e.workers <= 1 {
		for m := 1; m <= s.ProjectionMonths; m++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[m-1] = e.month(s, list, m)
		}
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for m := 1; m <= s.ProjectionMonths; m++ {
		m := m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[m-1] = e.month(s, list, m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) resolve(s plan.Scenario, components map[string]plan.Component) []*attached {
	names := make(map[string]int)
	var list []*attached
	for _, sc := range s.Components {
		c, ok := components[sc.ComponentID]
		if !ok {
			e.log.WithFields(logrus.Fields{
				"scenario_id":  s.ID,
				"component_id": sc.ComponentID,
			}).Warn("scenario references missing component, skipping")
			continue
		}
		c.Normalize()
		a := &attached{key: c.Name, comp: c, sc: sc, start: c.StartDate, end: c.EndDate}
		if sc.StartDateOverride != nil {
			a.start = *sc.StartDateOverride
		}
		if sc.EndDateOverride != nil {
			end := *sc.EndDateOverride
			a.end = &end
		}
		a.prog, a.compileErr = e.eval.Compile(c.Formula)
		names[c.Name]++
		list = append(list, a)
	}
	for _, a := range list {
		if names[a.comp.Name] > 1 {
			a.key = fmt.Sprintf("%s [%s]", a.comp.Name, a.comp.ID)
		}
	}
	return list
}

func (e *Engine) month(s plan.Scenario, list []*attached, m int) plan.MonthlyProjection {
	date := s.StartDate.AddMonths(m - 1)
	rec := plan.MonthlyProjection{
		ScenarioID:       s.ID,
		ProjectionDate:   date,
		MonthNumber:      m,
		TotalIncome:      decimal.Zero,
		TotalExpenses:    decimal.Zero,
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		Breakdown:        make(map[string]plan.BreakdownEntry, len(list)),
	}

	for _, a := range list {
		if !a.active(date) {
			continue
		}
		entry := plan.BreakdownEntry{Category: a.comp.Category, ComponentID: a.comp.ID, Value: decimal.Zero}
		v, err := e.value(a, m, date)
		if err != nil {
			entry.Error = err.Error()
			e.log.WithFields(logrus.Fields{
				"scenario_id":  s.ID,
				"component_id": a.comp.ID,
				"month":        m,
			}).WithError(err).Debug("component evaluation failed")
		} else {
			entry.Value = v
		}
		rec.Breakdown[a.key] = entry

		switch a.comp.Category {
		case plan.Income:
			rec.TotalIncome = rec.TotalIncome.Add(entry.Value)
		case plan.Expense:
			rec.TotalExpenses = rec.TotalExpenses.Add(entry.Value)
		case plan.Asset:
			rec.TotalAssets = rec.TotalAssets.Add(entry.Value)
		case plan.Liability:
			rec.TotalLiabilities = rec.TotalLiabilities.Add(entry.Value)
		}
	}
	rec.NetCashFlow = rec.TotalIncome.Sub(rec.TotalExpenses)
	rec.NetWorth = rec.TotalAssets.Sub(rec.TotalLiabilities)

	for _, ev := range s.LifeEvents {
		if !ev.Date.After(date) {
			rec.ActiveLifeEvents = append(rec.ActiveLifeEvents, ev)
		}
	}
	return rec
}

var (
	three  = decimal.NewFromInt(3)
	twelve = decimal.NewFromInt(12)
)

// value evaluates one active component for month m and applies the
// frequency and seasonal policy.
func (e *Engine) value(a *attached, m int, date plan.Date) (decimal.Decimal, error) {
	if a.compileErr != nil {
		return decimal.Zero, a.compileErr
	}
	vars := formula.Merge(a.comp.Variables, a.sc.VariableOverrides, TimeContext(m, date))
	v, err := e.eval.Run(a.prog, vars)
	if err != nil {
		return decimal.Zero, err
	}

	switch a.comp.Frequency {
	case plan.Yearly:
		if date.Month != time.January {
			return decimal.Zero, nil
		}
		v, err = finance.Div(v, twelve)
	case plan.Quarterly:
		switch date.Month {
		case time.January, time.April, time.July, time.October:
		default:
			return decimal.Zero, nil
		}
		v, err = finance.Div(v, three)
	case plan.OneTime:
		if m > 1 {
			return decimal.Zero, nil
		}
	}
	if err != nil {
		return decimal.Zero, err
	}

	if f, ok := a.comp.SeasonalFactors[date.MonthAbbrev()]; ok {
		v = v.Mul(f)
	}
	return v.Round(e.precision), nil
}

// Reserved variable names. They are set last and always win over
// component defaults and scenario overrides.
const (
	VarMonth       = "month"
	VarYear        = "year"
	VarMonthName   = "month_name"
	VarDaysInMonth = "days_in_month"
)

// TimeContext returns the reserved variables for month m falling on date.
func TimeContext(m int, date plan.Date) formula.Vars {
	return formula.Vars{
		VarMonth:       formula.Int(int64(m)),
		VarYear:        formula.Int(int64(date.Year)),
		VarMonthName:   formula.String(date.MonthName()),
		VarDaysInMonth: formula.Int(int64(date.DaysInMonth())),
	}
}
