package projection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rustyeddy/forecast/plan"
	"github.com/sirupsen/logrus"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrCompareArity     = errors.New("exactly two scenario IDs required")
)

// Store is the persistence collaborator. ReplaceProjections must swap the
// whole set for a scenario in one transaction.
type Store interface {
	GetScenario(ctx context.Context, id string) (plan.Scenario, error)
	GetComponents(ctx context.Context, ids []string) (map[string]plan.Component, error)
	ReplaceProjections(ctx context.Context, scenarioID string, recs []plan.MonthlyProjection) error
	ListProjections(ctx context.Context, scenarioID string, offset, limit int) ([]plan.MonthlyProjection, error)
}

// Service runs projections against a Store. Recalculations of the same
// scenario are serialized.
type Service struct {
	store  Store
	engine *Engine
	log    logrus.FieldLogger
	locks  sync.Map // scenario id -> *sync.Mutex
}

func NewService(store Store, engine *Engine, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, engine: engine, log: log}
}

func (s *Service) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Service) project(ctx context.Context, id string) (plan.Scenario, []plan.MonthlyProjection, error) {
	sc, err := s.store.GetScenario(ctx, id)
	if err != nil {
		return plan.Scenario{}, nil, err
	}
	ids := make([]string, 0, len(sc.Components))
	for _, c := range sc.Components {
		ids = append(ids, c.ComponentID)
	}
	comps, err := s.store.GetComponents(ctx, ids)
	if err != nil {
		return sc, nil, fmt.Errorf("load components: %w", err)
	}
	recs, err := s.engine.Project(ctx, sc, comps)
	if err != nil {
		return sc, nil, err
	}
	return sc, recs, nil
}

// Recalculate projects the scenario and replaces its stored projections.
func (s *Service) Recalculate(ctx context.Context, id string) ([]plan.MonthlyProjection, error) {
	unlock := s.lock(id)
	defer unlock()

	_, recs, err := s.project(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceProjections(ctx, id, recs); err != nil {
		return nil, fmt.Errorf("replace projections: %w", err)
	}

	failed := 0
	for _, r := range recs {
		failed += len(r.Failed())
	}
	s.log.WithFields(logrus.Fields{
		"scenario_id":       id,
		"months":            len(recs),
		"failed_components": failed,
	}).Info("projection recalculated")
	return recs, nil
}

// Preview projects the scenario without storing the result.
func (s *Service) Preview(ctx context.Context, id string) ([]plan.MonthlyProjection, error) {
	_, recs, err := s.project(ctx, id)
	return recs, err
}

// Summary condenses the stored projections of a scenario.
func (s *Service) Summary(ctx context.Context, id string) (plan.Summary, error) {
	if _, err := s.store.GetScenario(ctx, id); err != nil {
		return plan.Summary{}, err
	}
	recs, err := s.store.ListProjections(ctx, id, 0, 0)
	if err != nil {
		return plan.Summary{}, err
	}
	return Summarize(recs)
}

// Comparison is one side of a scenario comparison.
type Comparison struct {
	ScenarioID  string                   `json:"scenario_id" yaml:"scenario_id"`
	Name        string                   `json:"name" yaml:"name"`
	Projections []plan.MonthlyProjection `json:"projections" yaml:"projections"`
	Summary     plan.Summary             `json:"summary" yaml:"summary"`
}

// Compare projects two scenarios side by side without storing anything.
func (s *Service) Compare(ctx context.Context, ids ...string) ([]Comparison, error) {
	if len(ids) != 2 {
		return nil, ErrCompareArity
	}
	out := make([]Comparison, 0, len(ids))
	for _, id := range ids {
		sc, recs, err := s.project(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", id, err)
		}
		sum, err := Summarize(recs)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", id, err)
		}
		out = append(out, Comparison{ScenarioID: id, Name: sc.Name, Projections: recs, Summary: sum})
	}
	return out, nil
}
