package simtest

import (
	"context"
	"testing"
)

// Runner assembles and runs scenario simulations against the real engine.
type Runner struct {
	t *testing.T
}

// NewRunner creates a scenario runner bound to the test.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{t: t}
}

// Run validates and builds the scenario's model, applies the Mutate hook,
// integrates, and returns the collected results. Any failure along the way
// fails the test.
func (r *Runner) Run(sc Scenario) Result {
	r.t.Helper()

	if err := sc.Model.Validate(); err != nil {
		r.t.Fatalf("Run(%s): invalid model: %v", sc.Name, err)
	}
	s, times, err := sc.Model.Build()
	if err != nil {
		r.t.Fatalf("Run(%s): build: %v", sc.Name, err)
	}
	if sc.Mutate != nil {
		sc.Mutate(r.t, s)
	}

	trs, err := s.Simulate(context.Background(), times)
	if err != nil {
		r.t.Fatalf("Run(%s): simulate: %v", sc.Name, err)
	}

	return Result{Sim: s, Times: times, Trajectories: trs}
}
