package journal

import (
	"context"
	"fmt"

	"github.com/rustyeddy/forecast/plan"
)

// Import saves every component of f, then every scenario. Components go
// first so scenario attachments resolve. f should already be normalized
// and validated.
func Import(ctx context.Context, j Journal, f *plan.File) (components, scenarios int, err error) {
	for i := range f.Components {
		if err := j.SaveComponent(ctx, &f.Components[i]); err != nil {
			return components, scenarios, fmt.Errorf("component %q: %w", f.Components[i].Name, err)
		}
		components++
	}
	for i := range f.Scenarios {
		if err := j.SaveScenario(ctx, &f.Scenarios[i]); err != nil {
			return components, scenarios, fmt.Errorf("scenario %q: %w", f.Scenarios[i].Name, err)
		}
		scenarios++
	}
	return components, scenarios, nil
}
