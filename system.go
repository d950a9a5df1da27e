package mdrun

// System is the current molecular structure state for one run: element
// symbols, coordinates and, for periodic systems, the cell. It is owned by
// the caller and passed explicitly; concurrent or repeated runs each carry
// their own System.
type System struct {
	Elements    []string
	Coordinates [][3]float64
	Cell        *Cell
	Periodicity int
}

// AtomCount returns the number of atoms in the system.
func (s *System) AtomCount() int {
	return len(s.Coordinates)
}
