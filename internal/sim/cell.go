package sim

// CellID is a cell's stable index into the simulation's cell list, assigned
// once at registration.
type CellID int

// NetworkID identifies a registered network and, equally, the cell group
// built on it: networks and groups are parallel lists.
type NetworkID int

// Cell is one simulated cell: an optional spatial position, an assigned
// network, and an initial-condition vector ordered to that network's species.
// Cells are built through Simulation methods and read-only afterwards.
type Cell struct {
	id       CellID
	position []float64
	network  NetworkID // -1 until assigned
	ic       []float64 // nil until set
}

// ID returns the cell's registration index.
func (c *Cell) ID() CellID { return c.id }

// Position returns a copy of the cell's spatial position, nil when none was
// given. Only spatial interaction laws consult positions.
func (c *Cell) Position() []float64 {
	if c.position == nil {
		return nil
	}
	out := make([]float64, len(c.position))
	copy(out, c.position)
	return out
}

// Network returns the assigned network id, with ok false when unassigned.
func (c *Cell) Network() (NetworkID, bool) {
	return c.network, c.network >= 0
}

// HasInitialConditions reports whether initial conditions were set.
func (c *Cell) HasInitialConditions() bool { return c.ic != nil }

// InitialConditions returns a copy of the cell's initial-condition vector in
// its network's species order, nil when unset.
func (c *Cell) InitialConditions() []float64 {
	if c.ic == nil {
		return nil
	}
	out := make([]float64, len(c.ic))
	copy(out, c.ic)
	return out
}
