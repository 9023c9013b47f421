package sim

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors reported by the simulation engine. Wrap sites add cell,
// network, and interaction context; callers match with errors.Is.
var (
	// ErrUnknownCell reports a cell id with no registered cell.
	ErrUnknownCell = errors.New("sim: unknown cell")

	// ErrUnknownNetwork reports a network id outside the registered range.
	ErrUnknownNetwork = errors.New("sim: unknown network")

	// ErrUnknownInteraction reports an interaction id with no registered
	// interaction.
	ErrUnknownInteraction = errors.New("sim: unknown interaction")

	// ErrNoNetwork reports an operation that requires a cell to have an
	// assigned network before it runs, such as setting initial conditions.
	ErrNoNetwork = errors.New("sim: cell has no assigned network")

	// ErrCellReassigned reports an attempt to move a cell to another
	// network after its initial conditions were set. The assignment and
	// the conditions are ordered to the same species list, so moving the
	// cell would silently misalign its state.
	ErrCellReassigned = errors.New("sim: cell reassigned after initial conditions")

	// ErrSimulationRunning reports a mutating call made while Simulate is
	// in flight. Networks, cells, and interactions are read-only during
	// integration.
	ErrSimulationRunning = errors.New("sim: simulation is running")

	// ErrIncompleteInitialConditions reports initial conditions whose keys
	// do not exactly cover the assigned network's species.
	ErrIncompleteInitialConditions = errors.New("sim: incomplete initial conditions")

	// ErrInteractionTarget reports a mismatch between an interaction law's
	// modifier role and its target kind.
	ErrInteractionTarget = errors.New("sim: interaction law role does not match target kind")

	// ErrNotReady reports a Simulate call on an incomplete configuration.
	// The returned error is a *NotReadyError listing every gap.
	ErrNotReady = errors.New("sim: simulation not ready")

	// ErrIntegrationFailed reports that the numerical integrator gave up.
	// The integrator's own diagnostic is wrapped alongside.
	ErrIntegrationFailed = errors.New("sim: integration failed")
)

// NotReadyError aggregates everything blocking a simulation from running:
// unassigned cells, cells without initial conditions, rate laws with unset
// parameters, and structurally invalid interactions. It is built in one pass
// so a caller sees the full list, not the first failure.
type NotReadyError struct {
	// CellsWithoutNetwork lists cells never assigned to a network.
	CellsWithoutNetwork []CellID

	// CellsWithoutConditions lists assigned cells missing initial conditions.
	CellsWithoutConditions []CellID

	// UnsetParams describes every rate law still missing parameters, in
	// "network: edge (kind)" form.
	UnsetParams []string

	// BadInteractions describes interactions referencing species or cells
	// that the registered networks cannot satisfy.
	BadInteractions []string
}

// Is reports ErrNotReady so errors.Is(err, ErrNotReady) matches.
func (e *NotReadyError) Is(target error) bool { return target == ErrNotReady }

func (e *NotReadyError) Error() string {
	var parts []string
	if n := len(e.CellsWithoutNetwork); n > 0 {
		parts = append(parts, fmt.Sprintf("%d cell(s) without a network %v", n, e.CellsWithoutNetwork))
	}
	if n := len(e.CellsWithoutConditions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d cell(s) without initial conditions %v", n, e.CellsWithoutConditions))
	}
	if n := len(e.UnsetParams); n > 0 {
		parts = append(parts, fmt.Sprintf("unset parameters: %s", strings.Join(e.UnsetParams, "; ")))
	}
	if n := len(e.BadInteractions); n > 0 {
		parts = append(parts, fmt.Sprintf("invalid interactions: %s", strings.Join(e.BadInteractions, "; ")))
	}
	if len(parts) == 0 {
		return "sim: simulation not ready"
	}
	return "sim: simulation not ready: " + strings.Join(parts, "; ")
}

// empty reports whether no readiness gaps were recorded.
func (e *NotReadyError) empty() bool {
	return len(e.CellsWithoutNetwork) == 0 &&
		len(e.CellsWithoutConditions) == 0 &&
		len(e.UnsetParams) == 0 &&
		len(e.BadInteractions) == 0
}
