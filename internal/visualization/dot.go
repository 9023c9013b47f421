// Package visualization renders reaction networks and simulation results in
// various output formats: Graphviz DOT graphs, PNG time-series charts,
// lattice frames, and MJPEG video.
package visualization

import (
	"fmt"
	"strings"

	"github.com/hermangudjonson/simulation-framework/internal/network"
	"github.com/hermangudjonson/simulation-framework/internal/sim"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// lawColors maps rate-law kinds to DOT edge colors.
var lawColors = map[network.LawKind]string{
	network.LawConstantProduction:   "steelblue",
	network.LawLinearActivation:     "mediumseagreen",
	network.LawHillActivation:       "mediumseagreen",
	network.LawHillInactivation:     "tomato",
	network.LawLinearDegradation:    "gray40",
	network.LawParabolicDegradation: "gray40",
}

// RenderDOT produces a Graphviz DOT view of the networks: one cluster per
// network, species as filled boxes, rate-law edges colored by kind.
// Degradation self-loops render dotted and modifier edges dashed. Every
// gated edge gets a junction point so modifiers have something to attach
// to. External interactions render as oval nodes wired bold from their
// source species in every group that carries it; ias may be nil when only
// templates are known.
func RenderDOT(nets []*network.Network, ias []*sim.Interaction) string {
	var b strings.Builder
	b.WriteString("digraph simframe {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled, fillcolor=lightsteelblue, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	gated := gatedEdges(nets, ias)
	for g, net := range nets {
		names := net.SpeciesNames()

		fmt.Fprintf(&b, "  subgraph cluster_%d {\n", g)
		fmt.Fprintf(&b, "    label=%q;\n", net.Name())
		for _, name := range names {
			fmt.Fprintf(&b, "    %q [label=%q];\n", speciesNode(g, name), name)
		}
		for _, e := range net.Edges() {
			if gated[g][e.ID] {
				fmt.Fprintf(&b, "    %q [shape=point, width=0.1, fillcolor=black];\n", junctionNode(g, e.ID))
			}
		}

		for _, e := range net.Edges() {
			renderEdge(&b, g, names, e, gated[g][e.ID])
		}
		b.WriteString("  }\n\n")
	}

	for _, ia := range ias {
		renderInteraction(&b, nets, ia)
	}

	b.WriteString("}\n")
	return b.String()
}

// renderEdge writes one in-network edge. Gated edges route through their
// junction point so the law label sits on the incoming segment.
func renderEdge(b *strings.Builder, g int, names []string, e *network.Edge, hasJunction bool) {
	src := speciesNode(g, names[e.From])
	label := string(e.Law.Kind())
	color := lawColors[e.Law.Kind()]

	if te, ok := e.Target.Edge(); ok {
		fmt.Fprintf(b, "    %q -> %q [label=%q, style=dashed, color=%s];\n",
			src, junctionNode(g, te), fmt.Sprintf("%s (%s)", label, e.Mod()), color)
		return
	}

	sp, _ := e.Target.Species()
	dst := speciesNode(g, names[sp])
	style := "solid"
	if e.From == sp && isDegradation(e.Law.Kind()) {
		style = "dotted"
	}
	if hasJunction {
		j := junctionNode(g, e.ID)
		fmt.Fprintf(b, "    %q -> %q [label=%q, style=%s, color=%s, arrowhead=none];\n",
			src, j, label, style, color)
		fmt.Fprintf(b, "    %q -> %q [style=%s, color=%s];\n", j, dst, style, color)
		return
	}
	fmt.Fprintf(b, "    %q -> %q [label=%q, style=%s, color=%s];\n", src, dst, label, style, color)
}

// renderInteraction writes one interaction node plus its source and target
// edges. Modifier targets attach to the gated edge's junction point.
func renderInteraction(b *strings.Builder, nets []*network.Network, ia *sim.Interaction) {
	id := interactionNode(ia.ID)
	label := ia.Law.Kind()
	if mod := ia.Mod(); mod != network.ModNone {
		label = fmt.Sprintf("%s (%s)", label, mod)
	}
	fmt.Fprintf(b, "  %q [shape=oval, style=\"filled,bold\", fillcolor=wheat, label=%q];\n", id, label)

	for g, net := range nets {
		if net.HasSpecies(ia.From) {
			fmt.Fprintf(b, "  %q -> %q [style=bold];\n", speciesNode(g, ia.From), id)
		}
	}

	if name, ok := ia.Target.SpeciesName(); ok {
		for g, net := range nets {
			if net.HasSpecies(name) {
				fmt.Fprintf(b, "  %q -> %q [style=bold];\n", id, speciesNode(g, name))
			}
		}
		return
	}
	if netID, edgeID, ok := ia.Target.NetworkEdge(); ok {
		fmt.Fprintf(b, "  %q -> %q [style=\"bold,dashed\"];\n", id, junctionNode(int(netID), edgeID))
		return
	}
	if target, ok := ia.Target.Interaction(); ok {
		fmt.Fprintf(b, "  %q -> %q [style=\"bold,dashed\"];\n", id, interactionNode(target))
	}
}

// RenderJSON produces a JSON-ready graph representation with per-network
// species and edges plus the interaction list.
func RenderJSON(nets []*network.Network, ias []*sim.Interaction) map[string]interface{} {
	jsonNets := make([]map[string]interface{}, 0, len(nets))
	for _, net := range nets {
		names := net.SpeciesNames()

		jsonEdges := make([]map[string]interface{}, 0, len(net.Edges()))
		for _, e := range net.Edges() {
			entry := map[string]interface{}{
				"from": names[e.From],
				"law":  string(e.Law.Kind()),
			}
			if sp, ok := e.Target.Species(); ok {
				entry["to"] = names[sp]
			}
			if te, ok := e.Target.Edge(); ok {
				entry["to_edge"] = int(te)
				entry["mod"] = string(e.Mod())
			}
			if params := e.Law.Params(); params != nil {
				entry["params"] = params
			}
			jsonEdges = append(jsonEdges, entry)
		}

		jsonNets = append(jsonNets, map[string]interface{}{
			"name":    net.Name(),
			"species": names,
			"edges":   jsonEdges,
		})
	}

	jsonIAs := make([]map[string]interface{}, 0, len(ias))
	for _, ia := range ias {
		entry := map[string]interface{}{
			"species": ia.From,
			"law":     ia.Law.Kind(),
		}
		if name, ok := ia.Target.SpeciesName(); ok {
			entry["couple_to"] = name
		}
		if netID, edgeID, ok := ia.Target.NetworkEdge(); ok {
			entry["network"] = int(netID)
			entry["edge"] = int(edgeID)
		}
		if target, ok := ia.Target.Interaction(); ok {
			entry["interaction"] = int(target)
		}
		if mod := ia.Mod(); mod != network.ModNone {
			entry["mod"] = string(mod)
		}
		jsonIAs = append(jsonIAs, entry)
	}

	return map[string]interface{}{
		"networks":          jsonNets,
		"interactions":      jsonIAs,
		"network_count":     len(jsonNets),
		"interaction_count": len(jsonIAs),
	}
}

// gatedEdges collects, per network index, the edges that need a junction
// point: targets of in-network modifiers and of external edge modifiers.
func gatedEdges(nets []*network.Network, ias []*sim.Interaction) []map[network.EdgeID]bool {
	gated := make([]map[network.EdgeID]bool, len(nets))
	for g := range nets {
		gated[g] = make(map[network.EdgeID]bool)
		for _, e := range nets[g].Edges() {
			if te, ok := e.Target.Edge(); ok {
				gated[g][te] = true
			}
		}
	}
	for _, ia := range ias {
		if netID, edgeID, ok := ia.Target.NetworkEdge(); ok && int(netID) < len(gated) {
			gated[netID][edgeID] = true
		}
	}
	return gated
}

func speciesNode(g int, name string) string {
	return fmt.Sprintf("n%d.%s", g, name)
}

func junctionNode(g int, e network.EdgeID) string {
	return fmt.Sprintf("n%d.e%d", g, e)
}

func interactionNode(id sim.InteractionID) string {
	return fmt.Sprintf("interaction%d", id)
}

func isDegradation(k network.LawKind) bool {
	return k == network.LawLinearDegradation || k == network.LawParabolicDegradation
}
