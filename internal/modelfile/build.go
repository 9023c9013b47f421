package modelfile

import (
	"fmt"

	"github.com/hermangudjonson/simulation-framework/internal/integrate"
	"github.com/hermangudjonson/simulation-framework/internal/network"
	"github.com/hermangudjonson/simulation-framework/internal/sim"
)

// BuildNetworks materializes the declared networks in declaration order,
// without cells or interactions. The graph subcommand renders these directly.
func (m *Model) BuildNetworks() ([]*network.Network, error) {
	nets := make([]*network.Network, len(m.Networks))
	for i := range m.Networks {
		net, _, err := buildNetwork(&m.Networks[i])
		if err != nil {
			return nil, err
		}
		nets[i] = net
	}
	return nets, nil
}

// Build materializes the whole model: networks, cell populations with
// positions and initial conditions, and interactions, wired into a simulation
// driving the declared integrator. It returns the simulation and the output
// time grid.
func (m *Model) Build() (*sim.Simulation, []float64, error) {
	s := sim.New(sim.Config{Integrator: m.Integrator.build()})

	netIDs := make(map[string]sim.NetworkID, len(m.Networks))
	edgeIDs := make(map[string]map[string]network.EdgeID, len(m.Networks))
	for i := range m.Networks {
		nd := &m.Networks[i]
		net, named, err := buildNetwork(nd)
		if err != nil {
			return nil, nil, err
		}
		id, err := s.AddNetwork(net)
		if err != nil {
			return nil, nil, err
		}
		netIDs[nd.Name] = id
		edgeIDs[nd.Name] = named
	}

	for bi := range m.Cells {
		if err := buildCellBlock(s, &m.Cells[bi], netIDs); err != nil {
			return nil, nil, fmt.Errorf("modelfile: cells %d (%s): %w", bi, m.Cells[bi].Network, err)
		}
	}

	for ii := range m.Interactions {
		if err := buildInteraction(s, &m.Interactions[ii], netIDs, edgeIDs); err != nil {
			return nil, nil, fmt.Errorf("modelfile: interaction %d: %w", ii, err)
		}
	}

	return s, m.Times.grid(), nil
}

// buildNetwork builds one network, returning the ids of its named edges.
func buildNetwork(nd *NetworkDef) (*network.Network, map[string]network.EdgeID, error) {
	net := network.New(nd.Name)
	for _, sp := range nd.Species {
		if _, err := net.AddSpecies(sp.Name, network.LawKind(sp.Degradation), sp.Params); err != nil {
			return nil, nil, fmt.Errorf("modelfile: network %q: %w", nd.Name, err)
		}
	}

	order, err := sortEdges(nd.Edges)
	if err != nil {
		return nil, nil, fmt.Errorf("modelfile: network %q: %w", nd.Name, err)
	}
	named := make(map[string]network.EdgeID)
	for _, i := range order {
		e := &nd.Edges[i]
		mod, err := network.ParseModKind(e.Mod)
		if err != nil {
			return nil, nil, fmt.Errorf("modelfile: network %q edge %d: %w", nd.Name, i, err)
		}
		law, err := network.NewRateLaw(network.LawKind(e.Law), mod, e.Params)
		if err != nil {
			return nil, nil, fmt.Errorf("modelfile: network %q edge %d: %w", nd.Name, i, err)
		}
		from, err := net.SpeciesID(e.From)
		if err != nil {
			return nil, nil, fmt.Errorf("modelfile: network %q edge %d: %w", nd.Name, i, err)
		}
		var target network.EdgeTarget
		if e.To != "" {
			sid, err := net.SpeciesID(e.To)
			if err != nil {
				return nil, nil, fmt.Errorf("modelfile: network %q edge %d: %w", nd.Name, i, err)
			}
			target = network.ToSpecies(sid)
		} else {
			target = network.ToEdge(named[e.ToEdge])
		}
		id, err := net.AddEdge(from, target, law)
		if err != nil {
			return nil, nil, fmt.Errorf("modelfile: network %q edge %d: %w", nd.Name, i, err)
		}
		if e.Name != "" {
			named[e.Name] = id
		}
	}
	return net, named, nil
}

// buildCellBlock registers one block's cells, assigns the network, and sets
// merged initial conditions.
func buildCellBlock(s *sim.Simulation, cb *CellBlock, netIDs map[string]sim.NetworkID) error {
	count := cb.Count
	if count == 0 {
		count = len(cb.Positions)
	}
	ids := make([]sim.CellID, count)
	for i := 0; i < count; i++ {
		id, err := s.AddCell(blockPosition(cb, i))
		if err != nil {
			return err
		}
		ids[i] = id
	}
	if err := s.AssignNetwork(ids, netIDs[cb.Network]); err != nil {
		return err
	}

	overrides := make(map[int]map[string]float64, len(cb.Overrides))
	for _, ov := range cb.Overrides {
		overrides[ov.Cell] = ov.Initial
	}
	for i, id := range ids {
		ic := mergedInitial(cb.Initial, overrides[i])
		if ic == nil {
			continue
		}
		if err := s.SetInitialConditions([]sim.CellID{id}, ic); err != nil {
			return err
		}
	}
	return nil
}

// blockPosition returns cell i's position within a block, nil when the block
// is non-spatial.
func blockPosition(cb *CellBlock, i int) []float64 {
	if cb.Lattice != nil {
		return []float64{cb.Lattice.Start + float64(i)*cb.Lattice.Spacing}
	}
	if cb.Positions != nil {
		return cb.Positions[i]
	}
	return nil
}

// mergedInitial merges an override over the block's shared map, nil when
// neither is declared.
func mergedInitial(base, override map[string]float64) map[string]float64 {
	if base == nil && override == nil {
		return nil
	}
	out := make(map[string]float64, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// buildInteraction materializes one interaction's connectivity and law and
// registers it.
func buildInteraction(s *sim.Simulation, id *InteractionDef, netIDs map[string]sim.NetworkID, edgeIDs map[string]map[string]network.EdgeID) error {
	positions := s.Positions()
	conn, err := buildConn(id, s.NumCells(), positions)
	if err != nil {
		return err
	}
	mod, err := network.ParseModKind(id.Mod)
	if err != nil {
		return err
	}

	var law sim.InteractionLaw
	switch id.Law {
	case "diffusion":
		law, err = sim.NewDiffusion(id.Rate, conn, positions)
	case "mean_field":
		law, err = sim.NewMeanField(id.Rate, mod, conn)
	default:
		err = fmt.Errorf("unknown interaction law %q", id.Law)
	}
	if err != nil {
		return err
	}

	var target sim.InteractionTarget
	if id.CoupleTo != "" {
		target = sim.CoupleTo(id.CoupleTo)
	} else {
		target = sim.ModifyEdge(netIDs[id.Network], edgeIDs[id.Network][id.Edge])
	}
	_, err = s.AddInteraction(id.Species, target, law)
	return err
}

// buildConn materializes the connection matrix in coupling order. A global
// mean field gets nil; everything else gets an explicit matrix.
func buildConn(id *InteractionDef, total int, positions [][]float64) ([][]bool, error) {
	switch id.Connect {
	case "", "all":
		if id.Law == "mean_field" {
			return nil, nil
		}
		conn := newConn(total)
		for i := range conn {
			for j := range conn[i] {
				conn[i][j] = true
			}
		}
		return conn, nil

	case "nearest":
		conn := newConn(total)
		r2 := id.Radius * id.Radius
		for i := 0; i < total; i++ {
			for j := 0; j < total; j++ {
				if i == j {
					continue
				}
				pi, pj := positions[i], positions[j]
				if pi == nil || pj == nil {
					return nil, fmt.Errorf("connect nearest requires a position for every cell")
				}
				if len(pi) != len(pj) {
					return nil, fmt.Errorf("cells %d and %d have positions of different dimension", i, j)
				}
				var sq float64
				for k := range pi {
					d := pi[k] - pj[k]
					sq += d * d
				}
				if sq <= r2 {
					conn[i][j] = true
				}
			}
		}
		return conn, nil

	case "pairs":
		conn := newConn(total)
		for _, p := range id.Pairs {
			if p[0] >= total || p[1] >= total {
				return nil, fmt.Errorf("pair [%d %d] outside %d cell(s)", p[0], p[1], total)
			}
			conn[p[0]][p[1]] = true
		}
		return conn, nil
	}
	return nil, fmt.Errorf("unknown connect %q", id.Connect)
}

func newConn(n int) [][]bool {
	conn := make([][]bool, n)
	for i := range conn {
		conn[i] = make([]bool, n)
	}
	return conn
}

// grid materializes the declared time grid.
func (td *TimesDef) grid() []float64 {
	if td.List != nil {
		out := make([]float64, len(td.List))
		copy(out, td.List)
		return out
	}
	out := make([]float64, td.Points)
	step := (td.Stop - td.Start) / float64(td.Points-1)
	for i := range out {
		out[i] = td.Start + float64(i)*step
	}
	// Land exactly on the endpoint despite accumulated rounding.
	out[len(out)-1] = td.Stop
	return out
}

// build constructs the declared integrator, defaulting to adaptive RKF45.
func (id *IntegratorDef) build() integrate.Integrator {
	if id.Method == "rk4" {
		return integrate.NewRK4(id.Substeps)
	}
	cfg := integrate.DefaultConfig()
	if id.RelTolerance > 0 {
		cfg.RelTolerance = id.RelTolerance
	}
	if id.AbsTolerance > 0 {
		cfg.AbsTolerance = id.AbsTolerance
	}
	if id.InitialStep > 0 {
		cfg.InitialStep = id.InitialStep
	}
	if id.MaxStep > 0 {
		cfg.MaxStep = id.MaxStep
	}
	return integrate.NewRKF45(cfg)
}
