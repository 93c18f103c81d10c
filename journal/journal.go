// Package journal persists components, scenarios and their projections.
package journal

import (
	"context"
	"errors"

	"github.com/rustyeddy/forecast/plan"
	"github.com/rustyeddy/forecast/projection"
)

var ErrComponentNotFound = errors.New("component not found")

// Journal is the full store. It satisfies projection.Store.
type Journal interface {
	projection.Store

	SaveComponent(ctx context.Context, c *plan.Component) error
	GetComponent(ctx context.Context, id string) (plan.Component, error)
	ListComponents(ctx context.Context, ownerID string) ([]plan.Component, error)
	DeleteComponent(ctx context.Context, id string) error

	SaveScenario(ctx context.Context, s *plan.Scenario) error
	ListScenarios(ctx context.Context, ownerID string) ([]plan.Scenario, error)
	DeleteScenario(ctx context.Context, id string) error

	Close() error
}

var _ Journal = (*SQLite)(nil)
