// Package modelfile loads declarative simulation models from YAML. A model
// document names reaction networks, cell populations with positions and
// initial conditions, cross-group interactions, a time grid, and an
// integrator choice; Build turns a validated model into a ready-to-run
// simulation. The format is an input surface for the CLI, not engine state:
// the engine itself stays programmatic and in-memory.
package modelfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hermangudjonson/simulation-framework/internal/network"
)

// Model is the root of a model document.
type Model struct {
	// Name labels the model in logs and outputs.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Networks declares the reaction-network templates.
	Networks []NetworkDef `json:"networks" yaml:"networks"`

	// Cells declares cell populations, each bound to one network.
	Cells []CellBlock `json:"cells" yaml:"cells"`

	// Interactions declares cross-group couplings and external modifiers.
	Interactions []InteractionDef `json:"interactions,omitempty" yaml:"interactions,omitempty"`

	// Times is the output time grid.
	Times TimesDef `json:"times" yaml:"times"`

	// Integrator selects and tunes the integration method.
	Integrator IntegratorDef `json:"integrator,omitempty" yaml:"integrator,omitempty"`
}

// NetworkDef declares one reaction network.
type NetworkDef struct {
	Name    string       `json:"name" yaml:"name"`
	Species []SpeciesDef `json:"species" yaml:"species"`
	Edges   []EdgeDef    `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// SpeciesDef declares a species and its optional degradation law.
type SpeciesDef struct {
	Name string `json:"name" yaml:"name"`

	// Degradation is a degradation law kind ("linear" or "parabolic"),
	// empty for a species that does not degrade.
	Degradation string `json:"degradation,omitempty" yaml:"degradation,omitempty"`

	// Params parameterizes the degradation law.
	Params []float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// EdgeDef declares one edge. Exactly one of To and ToEdge must be set: To
// names a species the edge feeds, ToEdge names another edge the edge
// modifies. Modifier targets are symbolic, so an edge may be declared before
// or after the edge it gates.
type EdgeDef struct {
	// Name is an optional handle other edges use in to_edge references.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	From   string `json:"from" yaml:"from"`
	To     string `json:"to,omitempty" yaml:"to,omitempty"`
	ToEdge string `json:"to_edge,omitempty" yaml:"to_edge,omitempty"`

	// Law is the rate-law kind; Mod the modifier role, required with
	// ToEdge and forbidden with To.
	Law    string    `json:"law" yaml:"law"`
	Mod    string    `json:"mod,omitempty" yaml:"mod,omitempty"`
	Params []float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// CellBlock declares a population of cells sharing one network, with
// optional positions and initial conditions.
type CellBlock struct {
	Network string `json:"network" yaml:"network"`

	// Count is the number of cells. It may be omitted when Positions
	// lists them explicitly.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`

	// Lattice places cells on a 1-D line; Positions lists coordinates
	// explicitly. At most one of the two may be set; with neither the
	// cells are non-spatial.
	Lattice   *LatticeDef `json:"lattice,omitempty" yaml:"lattice,omitempty"`
	Positions [][]float64 `json:"positions,omitempty" yaml:"positions,omitempty"`

	// Initial is the shared initial-condition map for the block.
	Initial map[string]float64 `json:"initial,omitempty" yaml:"initial,omitempty"`

	// Overrides adjusts initial conditions for single cells, keyed by the
	// cell's zero-based index within this block. Override values merge
	// over Initial.
	Overrides []OverrideDef `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// LatticeDef places a block's cells at start, start+spacing, ... on a line.
type LatticeDef struct {
	Start   float64 `json:"start" yaml:"start"`
	Spacing float64 `json:"spacing" yaml:"spacing"`
}

// OverrideDef replaces initial-condition values for one cell of a block.
type OverrideDef struct {
	Cell    int                `json:"cell" yaml:"cell"`
	Initial map[string]float64 `json:"initial" yaml:"initial"`
}

// InteractionDef declares a cross-group interaction. Exactly one target must
// be set: CoupleTo names a species the interaction feeds, or Network and Edge
// name an internal edge it modifies.
type InteractionDef struct {
	// Species is the source species gathered across every cell.
	Species string `json:"species" yaml:"species"`

	CoupleTo string `json:"couple_to,omitempty" yaml:"couple_to,omitempty"`
	Network  string `json:"network,omitempty" yaml:"network,omitempty"`
	Edge     string `json:"edge,omitempty" yaml:"edge,omitempty"`

	// Law is "diffusion" or "mean_field"; Rate its scalar coefficient.
	// Mod is the modifier role for edge targets, mean_field only.
	Law  string  `json:"law" yaml:"law"`
	Rate float64 `json:"rate" yaml:"rate"`
	Mod  string  `json:"mod,omitempty" yaml:"mod,omitempty"`

	// Connect selects the connectivity: "all" (default), "nearest" within
	// Radius, or explicit Pairs. Pairs are [target, source] cell indices
	// in coupling order.
	Connect string  `json:"connect,omitempty" yaml:"connect,omitempty"`
	Radius  float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
	Pairs   [][]int `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

// TimesDef is the output time grid: either an explicit strictly increasing
// List, or Points values evenly spaced over [Start, Stop].
type TimesDef struct {
	Start  float64   `json:"start,omitempty" yaml:"start,omitempty"`
	Stop   float64   `json:"stop,omitempty" yaml:"stop,omitempty"`
	Points int       `json:"points,omitempty" yaml:"points,omitempty"`
	List   []float64 `json:"list,omitempty" yaml:"list,omitempty"`
}

// IntegratorDef selects the integration method. The zero value means
// adaptive RKF45 with default tolerances.
type IntegratorDef struct {
	// Method is "rkf45" (default) or "rk4".
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	RelTolerance float64 `json:"rel_tolerance,omitempty" yaml:"rel_tolerance,omitempty"`
	AbsTolerance float64 `json:"abs_tolerance,omitempty" yaml:"abs_tolerance,omitempty"`
	InitialStep  float64 `json:"initial_step,omitempty" yaml:"initial_step,omitempty"`
	MaxStep      float64 `json:"max_step,omitempty" yaml:"max_step,omitempty"`

	// Substeps is the fixed substep count per interval, rk4 only.
	Substeps int `json:"substeps,omitempty" yaml:"substeps,omitempty"`
}

// Load reads and validates a model document from a file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals and validates a model document.
func Parse(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing model file: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the model's declarations against each other: known law
// kinds and parameter counts, resolvable species and edge references, acyclic
// modifier chains, coherent cell blocks, and a usable time grid. It reports
// the first problem found.
func (m *Model) Validate() error {
	if len(m.Networks) == 0 {
		return fmt.Errorf("modelfile: no networks declared")
	}

	netSpecies := make(map[string]map[string]bool, len(m.Networks))
	netEdges := make(map[string]map[string]bool, len(m.Networks))
	for i := range m.Networks {
		nd := &m.Networks[i]
		if nd.Name == "" {
			return fmt.Errorf("modelfile: network %d has no name", i)
		}
		if _, ok := netSpecies[nd.Name]; ok {
			return fmt.Errorf("modelfile: duplicate network %q", nd.Name)
		}
		species, edges, err := validateNetwork(nd)
		if err != nil {
			return fmt.Errorf("modelfile: network %q: %w", nd.Name, err)
		}
		netSpecies[nd.Name] = species
		netEdges[nd.Name] = edges
	}

	if len(m.Cells) == 0 {
		return fmt.Errorf("modelfile: no cells declared")
	}
	for i := range m.Cells {
		cb := &m.Cells[i]
		species, ok := netSpecies[cb.Network]
		if !ok {
			return fmt.Errorf("modelfile: cells %d: unknown network %q", i, cb.Network)
		}
		if err := validateCellBlock(cb, species); err != nil {
			return fmt.Errorf("modelfile: cells %d (%s): %w", i, cb.Network, err)
		}
	}

	for i := range m.Interactions {
		if err := validateInteraction(&m.Interactions[i], netSpecies, netEdges); err != nil {
			return fmt.Errorf("modelfile: interaction %d: %w", i, err)
		}
	}

	if err := validateTimes(&m.Times); err != nil {
		return fmt.Errorf("modelfile: times: %w", err)
	}
	if err := validateIntegrator(&m.Integrator); err != nil {
		return fmt.Errorf("modelfile: integrator: %w", err)
	}
	return nil
}

// validateNetwork checks one network declaration, returning its species and
// named-edge sets for cross-references.
func validateNetwork(nd *NetworkDef) (species, edges map[string]bool, err error) {
	if len(nd.Species) == 0 {
		return nil, nil, fmt.Errorf("no species declared")
	}
	species = make(map[string]bool, len(nd.Species))
	for _, sp := range nd.Species {
		if sp.Name == "" {
			return nil, nil, fmt.Errorf("species with empty name")
		}
		if species[sp.Name] {
			return nil, nil, fmt.Errorf("duplicate species %q", sp.Name)
		}
		species[sp.Name] = true
		if sp.Degradation == "" {
			if len(sp.Params) > 0 {
				return nil, nil, fmt.Errorf("species %q: params without a degradation law", sp.Name)
			}
			continue
		}
		kind := network.LawKind(sp.Degradation)
		if kind != network.LawLinearDegradation && kind != network.LawParabolicDegradation {
			return nil, nil, fmt.Errorf("species %q: degradation must be %s or %s, got %q",
				sp.Name, network.LawLinearDegradation, network.LawParabolicDegradation, sp.Degradation)
		}
		if _, err := network.NewRateLaw(kind, network.ModNone, sp.Params); err != nil {
			return nil, nil, fmt.Errorf("species %q: %w", sp.Name, err)
		}
	}

	edges = make(map[string]bool)
	for i, e := range nd.Edges {
		if e.Name != "" {
			if edges[e.Name] {
				return nil, nil, fmt.Errorf("duplicate edge name %q", e.Name)
			}
			edges[e.Name] = true
		}
		if !species[e.From] {
			return nil, nil, fmt.Errorf("edge %d: unknown source species %q", i, e.From)
		}
		if (e.To == "") == (e.ToEdge == "") {
			return nil, nil, fmt.Errorf("edge %d: exactly one of to and to_edge must be set", i)
		}
		if e.To != "" && !species[e.To] {
			return nil, nil, fmt.Errorf("edge %d: unknown target species %q", i, e.To)
		}
		mod, err := network.ParseModKind(e.Mod)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %d: %w", i, err)
		}
		if (mod != network.ModNone) != (e.ToEdge != "") {
			return nil, nil, fmt.Errorf("edge %d: mod is required with to_edge and forbidden with to", i)
		}
		if _, err := network.NewRateLaw(network.LawKind(e.Law), mod, e.Params); err != nil {
			return nil, nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}

	// With all names known, reject dangling and cyclic modifier targets.
	for i, e := range nd.Edges {
		if e.ToEdge != "" && !edges[e.ToEdge] {
			return nil, nil, fmt.Errorf("edge %d: unknown target edge %q", i, e.ToEdge)
		}
	}
	if _, err := sortEdges(nd.Edges); err != nil {
		return nil, nil, err
	}
	return species, edges, nil
}

// sortEdges orders edge declarations so every modifier target is built before
// the modifier itself, preserving declaration order otherwise. A chain of
// to_edge references that loops back on itself fails with ErrModifierCycle.
func sortEdges(edges []EdgeDef) ([]int, error) {
	order := make([]int, 0, len(edges))
	placed := make(map[string]bool)
	done := make([]bool, len(edges))
	for len(order) < len(edges) {
		progress := false
		for i := range edges {
			if done[i] {
				continue
			}
			if edges[i].ToEdge != "" && !placed[edges[i].ToEdge] {
				continue
			}
			done[i] = true
			if edges[i].Name != "" {
				placed[edges[i].Name] = true
			}
			order = append(order, i)
			progress = true
		}
		if !progress {
			var stuck []string
			for i := range edges {
				if !done[i] {
					stuck = append(stuck, fmt.Sprintf("%s -> %s", edges[i].From, edges[i].ToEdge))
				}
			}
			return nil, fmt.Errorf("%w: %v", network.ErrModifierCycle, stuck)
		}
	}
	return order, nil
}

// validateCellBlock checks counts, positions, and initial-condition keys.
func validateCellBlock(cb *CellBlock, species map[string]bool) error {
	if cb.Lattice != nil && cb.Positions != nil {
		return fmt.Errorf("lattice and positions are mutually exclusive")
	}
	count := cb.Count
	if cb.Positions != nil {
		if count == 0 {
			count = len(cb.Positions)
		}
		if count != len(cb.Positions) {
			return fmt.Errorf("count %d does not match %d position(s)", count, len(cb.Positions))
		}
	}
	if count < 1 {
		return fmt.Errorf("no cells (count %d)", count)
	}
	if cb.Lattice != nil && cb.Lattice.Spacing == 0 {
		return fmt.Errorf("lattice spacing must be nonzero")
	}
	for name := range cb.Initial {
		if !species[name] {
			return fmt.Errorf("initial value for unknown species %q", name)
		}
	}
	for _, ov := range cb.Overrides {
		if ov.Cell < 0 || ov.Cell >= count {
			return fmt.Errorf("override for cell %d outside the block of %d", ov.Cell, count)
		}
		for name := range ov.Initial {
			if !species[name] {
				return fmt.Errorf("override for cell %d: unknown species %q", ov.Cell, name)
			}
		}
	}
	return nil
}

// validateInteraction checks the law, the target, and the connectivity.
func validateInteraction(id *InteractionDef, netSpecies map[string]map[string]bool, netEdges map[string]map[string]bool) error {
	if id.Species == "" {
		return fmt.Errorf("no source species")
	}
	if !speciesAnywhere(id.Species, netSpecies) {
		return fmt.Errorf("source species %q not in any network", id.Species)
	}

	mod, err := network.ParseModKind(id.Mod)
	if err != nil {
		return err
	}
	toSpecies := id.CoupleTo != ""
	toEdge := id.Network != "" || id.Edge != ""
	if toSpecies == toEdge {
		return fmt.Errorf("exactly one of couple_to and network/edge must be set")
	}
	if toSpecies {
		if mod != network.ModNone {
			return fmt.Errorf("mod %q with a species target", id.Mod)
		}
		if !speciesAnywhere(id.CoupleTo, netSpecies) {
			return fmt.Errorf("target species %q not in any network", id.CoupleTo)
		}
	} else {
		if mod == network.ModNone {
			return fmt.Errorf("an edge target requires mod %q or %q", network.ModInput, network.ModOutput)
		}
		edges, ok := netEdges[id.Network]
		if !ok {
			return fmt.Errorf("unknown network %q", id.Network)
		}
		if !edges[id.Edge] {
			return fmt.Errorf("network %q has no edge named %q", id.Network, id.Edge)
		}
	}

	switch id.Law {
	case "diffusion":
		if mod != network.ModNone {
			return fmt.Errorf("diffusion cannot act as a modifier")
		}
	case "mean_field":
	default:
		return fmt.Errorf("unknown interaction law %q", id.Law)
	}

	switch id.Connect {
	case "", "all":
		if id.Radius != 0 || id.Pairs != nil {
			return fmt.Errorf("radius and pairs require connect %q or %q", "nearest", "pairs")
		}
	case "nearest":
		if id.Radius <= 0 {
			return fmt.Errorf("connect nearest requires a positive radius")
		}
		if id.Pairs != nil {
			return fmt.Errorf("pairs with connect nearest")
		}
	case "pairs":
		if len(id.Pairs) == 0 {
			return fmt.Errorf("connect pairs requires at least one pair")
		}
		for i, p := range id.Pairs {
			if len(p) != 2 {
				return fmt.Errorf("pair %d has %d element(s), want [target, source]", i, len(p))
			}
			if p[0] < 0 || p[1] < 0 {
				return fmt.Errorf("pair %d has a negative cell index", i)
			}
		}
	default:
		return fmt.Errorf("unknown connect %q", id.Connect)
	}
	return nil
}

func speciesAnywhere(name string, netSpecies map[string]map[string]bool) bool {
	for _, species := range netSpecies {
		if species[name] {
			return true
		}
	}
	return false
}

// validateTimes checks the grid declaration without materializing it.
func validateTimes(td *TimesDef) error {
	if td.List != nil {
		if td.Start != 0 || td.Stop != 0 || td.Points != 0 {
			return fmt.Errorf("list and start/stop/points are mutually exclusive")
		}
		if len(td.List) == 0 {
			return fmt.Errorf("empty list")
		}
		for i := 1; i < len(td.List); i++ {
			if td.List[i] <= td.List[i-1] {
				return fmt.Errorf("list must be strictly increasing at entry %d", i)
			}
		}
		return nil
	}
	if td.Points < 2 {
		return fmt.Errorf("at least 2 points required, got %d", td.Points)
	}
	if td.Stop <= td.Start {
		return fmt.Errorf("stop %g must exceed start %g", td.Stop, td.Start)
	}
	return nil
}

func validateIntegrator(id *IntegratorDef) error {
	switch id.Method {
	case "", "rkf45", "rk4":
	default:
		return fmt.Errorf("unknown method %q", id.Method)
	}
	if id.Method == "rk4" && (id.RelTolerance != 0 || id.AbsTolerance != 0) {
		return fmt.Errorf("tolerances apply to rkf45 only")
	}
	if id.Substeps != 0 && id.Method != "rk4" {
		return fmt.Errorf("substeps apply to rk4 only")
	}
	if id.RelTolerance < 0 || id.AbsTolerance < 0 || id.InitialStep < 0 || id.MaxStep < 0 || id.Substeps < 0 {
		return fmt.Errorf("negative integrator setting")
	}
	return nil
}
