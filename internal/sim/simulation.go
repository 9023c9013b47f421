// Package sim couples reaction networks to populations of cells and compiles
// the result into a single ODE derivative for numerical integration. Cells
// are grouped by the network they run; groups share state through
// cross-group interactions that gather a species over every cell, with NaN
// standing in for cells whose network lacks it. One Simulate call validates
// readiness, packs initial conditions into a flat vector, drives the
// configured integrator, and unpacks the solution into per-cell
// trajectories.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hermangudjonson/simulation-framework/internal/integrate"
	"github.com/hermangudjonson/simulation-framework/internal/logging"
	"github.com/hermangudjonson/simulation-framework/internal/network"
	"github.com/hermangudjonson/simulation-framework/internal/trajectory"
)

// Config holds tunable parameters for a simulation.
type Config struct {
	// Integrator advances the assembled system. Nil selects adaptive
	// RKF45 with default tolerances.
	Integrator integrate.Integrator
}

// DefaultConfig returns the default simulation configuration.
func DefaultConfig() Config {
	return Config{Integrator: integrate.NewRKF45(integrate.DefaultConfig())}
}

// Simulation owns cells, their networks, and cross-group interactions, and
// runs the assembled system through an integrator. It is not safe for
// concurrent use; mutating calls made while Simulate is in flight fail with
// ErrSimulationRunning.
type Simulation struct {
	config       Config
	cells        []*Cell
	networks     []*network.Network
	groups       [][]CellID // parallel to networks: member cells in assignment order
	interactions []*Interaction
	nextInter    InteractionID
	running      bool

	logger *slog.Logger
	runs   *logging.RunLogger
}

// New creates an empty simulation. A nil config integrator falls back to the
// default.
func New(config Config) *Simulation {
	if config.Integrator == nil {
		config.Integrator = integrate.NewRKF45(integrate.DefaultConfig())
	}
	return &Simulation{config: config}
}

// SetLogger sets the structured logger and run logger for observability.
func (s *Simulation) SetLogger(logger *slog.Logger, runs *logging.RunLogger) {
	s.logger = logger
	s.runs = runs
}

// AddCell registers a cell with an optional spatial position and returns its
// stable id. Position is copied; nil means non-spatial.
func (s *Simulation) AddCell(position []float64) (CellID, error) {
	if s.running {
		return 0, ErrSimulationRunning
	}
	id := CellID(len(s.cells))
	c := &Cell{id: id, network: -1}
	if position != nil {
		c.position = make([]float64, len(position))
		copy(c.position, position)
	}
	s.cells = append(s.cells, c)
	return id, nil
}

// AddNetwork registers a network and creates its (initially empty) cell
// group. The same network may be registered more than once; each
// registration is an independent group.
func (s *Simulation) AddNetwork(net *network.Network) (NetworkID, error) {
	if s.running {
		return 0, ErrSimulationRunning
	}
	if net == nil {
		return 0, fmt.Errorf("sim: nil network")
	}
	id := NetworkID(len(s.networks))
	s.networks = append(s.networks, net)
	s.groups = append(s.groups, nil)
	return id, nil
}

// AssignNetwork places cells in the given network's group. Cells may be
// moved between groups freely until their initial conditions are set;
// afterwards reassignment fails with ErrCellReassigned, since conditions are
// ordered to the assigned network's species. No cell is moved unless every
// cell in the call passes validation.
func (s *Simulation) AssignNetwork(cells []CellID, net NetworkID) error {
	if s.running {
		return ErrSimulationRunning
	}
	if int(net) < 0 || int(net) >= len(s.networks) {
		return fmt.Errorf("%w: id %d", ErrUnknownNetwork, net)
	}
	for _, id := range cells {
		c, err := s.cell(id)
		if err != nil {
			return err
		}
		if c.ic != nil {
			return fmt.Errorf("%w: cell %d", ErrCellReassigned, id)
		}
	}
	for _, id := range cells {
		c := s.cells[id]
		if c.network == net {
			continue
		}
		if c.network >= 0 {
			s.removeFromGroup(c.network, id)
		}
		c.network = net
		s.groups[net] = append(s.groups[net], id)
	}
	return nil
}

// SetInitialConditions sets each cell's starting state from species name to
// value. Every cell must already have a network, and the keys must exactly
// cover that network's species. No cell is updated unless every cell in the
// call passes validation.
func (s *Simulation) SetInitialConditions(cells []CellID, values map[string]float64) error {
	if s.running {
		return ErrSimulationRunning
	}
	vectors := make(map[CellID][]float64, len(cells))
	for _, id := range cells {
		c, err := s.cell(id)
		if err != nil {
			return err
		}
		if c.network < 0 {
			return fmt.Errorf("%w: cell %d", ErrNoNetwork, id)
		}
		net := s.networks[c.network]
		vec := make([]float64, net.NumSpecies())
		for j, name := range net.SpeciesNames() {
			v, ok := values[name]
			if !ok {
				return fmt.Errorf("%w: cell %d missing value for species %q", ErrIncompleteInitialConditions, id, name)
			}
			vec[j] = v
		}
		if len(values) != net.NumSpecies() {
			for k := range values {
				if !net.HasSpecies(k) {
					return fmt.Errorf("%w: cell %d: %w: %q not in network %q", ErrIncompleteInitialConditions, id, network.ErrUnknownSpecies, k, net.Name())
				}
			}
		}
		vectors[id] = vec
	}
	for id, vec := range vectors {
		s.cells[id].ic = vec
	}
	return nil
}

// AddInteraction registers a cross-group interaction and returns its id.
// The law's modifier role must match the target kind, and modifier targets
// must already exist, which keeps modifier chains acyclic: no interaction
// can gate an edge or interaction registered after it.
func (s *Simulation) AddInteraction(from string, target InteractionTarget, law InteractionLaw) (InteractionID, error) {
	if s.running {
		return 0, ErrSimulationRunning
	}
	if law == nil {
		return 0, fmt.Errorf("sim: nil interaction law")
	}
	if from == "" {
		return 0, fmt.Errorf("sim: interaction needs a source species name")
	}
	if isMod := law.Mod() != network.ModNone; isMod != target.IsModifier() {
		return 0, fmt.Errorf("%w: law %s (mod %q)", ErrInteractionTarget, law.Kind(), law.Mod())
	}
	if netID, edgeID, ok := target.NetworkEdge(); ok {
		if int(netID) < 0 || int(netID) >= len(s.networks) {
			return 0, fmt.Errorf("%w: id %d", ErrUnknownNetwork, netID)
		}
		if _, err := s.networks[netID].Edge(edgeID); err != nil {
			return 0, err
		}
	}
	if tid, ok := target.Interaction(); ok {
		if int(tid) < 0 || int(tid) >= len(s.interactions) {
			return 0, fmt.Errorf("%w: id %d", ErrUnknownInteraction, tid)
		}
	}
	id := s.nextInter
	s.nextInter++
	s.interactions = append(s.interactions, &Interaction{ID: id, From: from, Target: target, Law: law})
	return id, nil
}

// Ready validates the full configuration: every cell assigned, every cell
// with initial conditions, every rate law parameterized, every interaction
// structurally sound. It returns nil when complete, otherwise a
// *NotReadyError listing all gaps at once.
func (s *Simulation) Ready() error {
	nr := &NotReadyError{}
	for _, c := range s.cells {
		if c.network < 0 {
			nr.CellsWithoutNetwork = append(nr.CellsWithoutNetwork, c.id)
			continue
		}
		if c.ic == nil {
			nr.CellsWithoutConditions = append(nr.CellsWithoutConditions, c.id)
		}
	}

	// A template registered for several groups is reported once.
	seen := make(map[*network.Network]bool, len(s.networks))
	for _, net := range s.networks {
		if seen[net] {
			continue
		}
		seen[net] = true
		nr.UnsetParams = append(nr.UnsetParams, net.UnsetParams()...)
	}

	lay := s.computeLayout()
	for _, ia := range s.interactions {
		if !s.speciesKnown(ia.From) {
			nr.BadInteractions = append(nr.BadInteractions, fmt.Sprintf("interaction %d: source species %q not in any network", ia.ID, ia.From))
		}
		if name, ok := ia.Target.SpeciesName(); ok && !s.speciesKnown(name) {
			nr.BadInteractions = append(nr.BadInteractions, fmt.Sprintf("interaction %d: target species %q not in any network", ia.ID, name))
		}
		if sc, ok := ia.Law.(SizeChecker); ok {
			if err := sc.CheckSize(lay.total); err != nil {
				nr.BadInteractions = append(nr.BadInteractions, fmt.Sprintf("interaction %d: %v", ia.ID, err))
			}
		}
	}

	if nr.empty() {
		return nil
	}
	return nr
}

// Simulate integrates the configured system across the given time points,
// returning one trajectory per cell indexed by cell id. An incomplete
// configuration fails with the aggregated *NotReadyError before any
// integration step; integrator failures wrap ErrIntegrationFailed with the
// integrator's diagnostic intact.
func (s *Simulation) Simulate(ctx context.Context, times []float64) ([]*trajectory.Trajectory, error) {
	if s.running {
		return nil, ErrSimulationRunning
	}
	if err := s.Ready(); err != nil {
		return nil, err
	}
	s.running = true
	defer func() { s.running = false }()

	lay := s.computeLayout()
	y0 := s.flattenInitial(lay)

	if s.logger != nil {
		s.logger.Debug("starting integration",
			"cells", len(s.cells),
			"networks", len(s.networks),
			"interactions", len(s.interactions),
			"points", len(times),
			"state_size", lay.flat)
	}

	start := time.Now()
	sol, err := s.config.Integrator.Integrate(ctx, s.derivative(), y0, times)
	elapsed := time.Since(start)
	s.logRun(len(times), elapsed, sol, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrationFailed, err)
	}

	return s.deinterleave(lay, sol), nil
}

// deinterleave splits the flat solution into per-cell trajectories, indexed
// by cell id.
func (s *Simulation) deinterleave(lay layout, sol *integrate.Solution) []*trajectory.Trajectory {
	trajs := make([]*trajectory.Trajectory, len(s.cells))
	for g, net := range s.networks {
		species := lay.dims[g][1]
		base := lay.offsets[g]
		names := net.SpeciesNames()
		for r, id := range s.groups[g] {
			states := make([][]float64, len(sol.States))
			for i, row := range sol.States {
				cellRow := make([]float64, species)
				copy(cellRow, row[base+r*species:base+(r+1)*species])
				states[i] = cellRow
			}
			trajs[id] = trajectory.New(int(id), names, sol.Times, states)
		}
	}
	return trajs
}

// logRun records one Simulate outcome through both loggers.
func (s *Simulation) logRun(points int, elapsed time.Duration, sol *integrate.Solution, err error) {
	if s.logger != nil {
		if err != nil {
			s.logger.Error("integration failed", "error", err, "duration", elapsed)
		} else {
			s.logger.Debug("integration finished",
				"steps", sol.Stats.Steps,
				"rejected", sol.Stats.Rejected,
				"evals", sol.Stats.Evals,
				"duration", elapsed)
		}
	}
	if s.runs == nil {
		return
	}
	event := map[string]any{
		"cells":        len(s.cells),
		"networks":     len(s.networks),
		"interactions": len(s.interactions),
		"points":       points,
		"duration_ms":  float64(elapsed.Microseconds()) / 1000.0,
		"outcome":      "ok",
	}
	if sol != nil {
		event["steps"] = sol.Stats.Steps
		event["rejected"] = sol.Stats.Rejected
		event["evals"] = sol.Stats.Evals
	}
	if err != nil {
		event["outcome"] = "failed"
		event["error"] = err.Error()
	}
	s.runs.Log(event)
}

// NumCells returns the number of registered cells.
func (s *Simulation) NumCells() int { return len(s.cells) }

// Cell returns a registered cell.
func (s *Simulation) Cell(id CellID) (*Cell, error) { return s.cell(id) }

// NumNetworks returns the number of registered networks.
func (s *Simulation) NumNetworks() int { return len(s.networks) }

// Network returns a registered network.
func (s *Simulation) Network(id NetworkID) (*network.Network, error) {
	if int(id) < 0 || int(id) >= len(s.networks) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownNetwork, id)
	}
	return s.networks[id], nil
}

// Networks returns the registered networks in registration order.
func (s *Simulation) Networks() []*network.Network {
	out := make([]*network.Network, len(s.networks))
	copy(out, s.networks)
	return out
}

// Interactions returns the registered interactions in registration order.
func (s *Simulation) Interactions() []*Interaction {
	out := make([]*Interaction, len(s.interactions))
	copy(out, s.interactions)
	return out
}

// GroupCells returns the given network's member cells in assignment order.
func (s *Simulation) GroupCells(net NetworkID) ([]CellID, error) {
	if int(net) < 0 || int(net) >= len(s.networks) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownNetwork, net)
	}
	out := make([]CellID, len(s.groups[net]))
	copy(out, s.groups[net])
	return out, nil
}

// GroupOrder returns all assigned cells in coupling order: group by group in
// network registration order, members in assignment order. Connection and
// distance matrices for interaction laws are indexed in this order.
func (s *Simulation) GroupOrder() []CellID {
	var out []CellID
	for _, members := range s.groups {
		out = append(out, members...)
	}
	return out
}

// Positions returns cell positions in coupling order, nil entries for cells
// without positions. It is the companion of GroupOrder for building spatial
// interaction laws.
func (s *Simulation) Positions() [][]float64 {
	var out [][]float64
	for _, members := range s.groups {
		for _, id := range members {
			out = append(out, s.cells[id].Position())
		}
	}
	return out
}

// removeFromGroup drops one cell from a group's member list, preserving the
// order of the rest.
func (s *Simulation) removeFromGroup(g NetworkID, id CellID) {
	members := s.groups[g]
	for i, m := range members {
		if m == id {
			s.groups[g] = append(members[:i], members[i+1:]...)
			return
		}
	}
}

// cell looks up a cell by id.
func (s *Simulation) cell(id CellID) (*Cell, error) {
	if int(id) < 0 || int(id) >= len(s.cells) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownCell, id)
	}
	return s.cells[id], nil
}

// speciesKnown reports whether any registered network has the species.
func (s *Simulation) speciesKnown(name string) bool {
	for _, net := range s.networks {
		if net.HasSpecies(name) {
			return true
		}
	}
	return false
}
