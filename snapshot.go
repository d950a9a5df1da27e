package mdrun

import (
	"strconv"
	"strings"
)

// Snapshot is a saved atomic configuration at a given elapsed step count,
// parsed from an engine dump file. Snapshots are never mutated, only
// superseded by newer ones with higher step counts.
type Snapshot struct {
	Steps       int
	Coordinates [][3]float64
	Cell        *Cell
}

const sectionMarker = "ITEM:"

// ParseDump parses the labelled-section dump format: a TIMESTEP section, a
// NUMBER OF ATOMS section that must match nAtoms, a BOX BOUNDS section in
// either orthogonal (lo/hi per axis) or triclinic (lo/hi plus tilt) layout,
// and a per-atom id/x/y/z section. The path is only used to attribute errors.
func ParseDump(path, content string, nAtoms int) (*Snapshot, error) {
	snap := &Snapshot{}

	lines := strings.Split(content, "\n")
	if len(lines) == 0 || !strings.HasPrefix(strings.TrimSpace(lines[0]), sectionMarker) {
		return nil, NewRunError(ErrorTypeCheckpointName,
			"dump file %q does not start with the %s section marker", path, sectionMarker)
	}

	section := ""
	var sectionLines []string
	flush := func() error {
		if section == "" {
			return nil
		}
		return snap.readSection(path, section, sectionLines, nAtoms)
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, sectionMarker) {
			if err := flush(); err != nil {
				return nil, err
			}
			section = strings.TrimSpace(line[len(sectionMarker):])
			sectionLines = sectionLines[:0]
			continue
		}
		sectionLines = append(sectionLines, line)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(snap.Coordinates) != nAtoms {
		return nil, NewRunError(ErrorTypeStructure,
			"dump file %q holds %d atoms, expected %d", path, len(snap.Coordinates), nAtoms)
	}
	return snap, nil
}

func (snap *Snapshot) readSection(path, section string, lines []string, nAtoms int) error {
	switch {
	case section == "TIMESTEP":
		if len(lines) == 0 {
			return NewRunError(ErrorTypeCheckpointName, "dump file %q: empty TIMESTEP section", path)
		}
		steps, err := strconv.Atoi(lines[0])
		if err != nil {
			return WrapRunError(ErrorTypeCheckpointName, err, "dump file %q: bad TIMESTEP", path)
		}
		snap.Steps = steps

	case section == "NUMBER OF ATOMS":
		if len(lines) == 0 {
			return NewRunError(ErrorTypeStructure, "dump file %q: empty NUMBER OF ATOMS section", path)
		}
		n, err := strconv.Atoi(lines[0])
		if err != nil {
			return WrapRunError(ErrorTypeStructure, err, "dump file %q: bad atom count", path)
		}
		if n != nAtoms {
			return NewRunError(ErrorTypeStructure,
				"dump file %q: number of atoms has changed, %d to %d", path, nAtoms, n)
		}

	case strings.Contains(section, "BOX BOUNDS"):
		cell, err := parseBoxBounds(path, section, lines)
		if err != nil {
			return err
		}
		snap.Cell = cell

	case strings.Contains(section, "ATOMS"):
		for _, line := range lines {
			fields := strings.Fields(line)
			if len(fields) < 4 {
				return NewRunError(ErrorTypeCheckpointName,
					"dump file %q: atom row %q has fewer than 4 fields", path, line)
			}
			var xyz [3]float64
			for i := 0; i < 3; i++ {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return WrapRunError(ErrorTypeCheckpointName, err,
						"dump file %q: bad coordinate in row %q", path, line)
				}
				xyz[i] = v
			}
			snap.Coordinates = append(snap.Coordinates, xyz)
		}
	}
	return nil
}

// parseBoxBounds handles both box layouts. The triclinic layout announces
// the tilt factors in the section header itself ("BOX BOUNDS xy xz yz ...")
// and carries one tilt factor per bounds row.
func parseBoxBounds(path, section string, lines []string) (*Cell, error) {
	if len(lines) < 3 {
		return nil, NewRunError(ErrorTypeCheckpointName,
			"dump file %q: BOX BOUNDS section has %d rows, expected 3", path, len(lines))
	}
	triclinic := len(strings.Fields(section)) == 8
	want := 2
	if triclinic {
		want = 3
	}
	vals := make([][]float64, 3)
	for i := 0; i < 3; i++ {
		fields := strings.Fields(lines[i])
		if len(fields) != want {
			return nil, NewRunError(ErrorTypeCheckpointName,
				"dump file %q: BOX BOUNDS row %q has %d fields, expected %d", path, lines[i], len(fields), want)
		}
		row := make([]float64, want)
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, WrapRunError(ErrorTypeCheckpointName, err,
					"dump file %q: bad BOX BOUNDS value", path)
			}
			row[j] = v
		}
		vals[i] = row
	}

	if !triclinic {
		cell := Box{
			Lx: vals[0][1] - vals[0][0],
			Ly: vals[1][1] - vals[1][0],
			Lz: vals[2][1] - vals[2][0],
		}.Cell()
		return &cell, nil
	}

	xy, xz, yz := vals[0][2], vals[1][2], vals[2][2]
	// The dump extends the x and y bounds to cover the tilted cell; undo that
	// before measuring edge lengths.
	xlo := vals[0][0] - min4(0, xy, xz, xy+xz)
	xhi := vals[0][1] - max4(0, xy, xz, xy+xz)
	ylo := vals[1][0] - min(0, yz)
	yhi := vals[1][1] - max(0, yz)
	zlo, zhi := vals[2][0], vals[2][1]
	cell := Box{
		Lx: xhi - xlo,
		Ly: yhi - ylo,
		Lz: zhi - zlo,
		Xy: xy, Xz: xz, Yz: yz,
	}.Cell()
	return &cell, nil
}

func min4(a, b, c, d float64) float64 { return min(min(a, b), min(c, d)) }

func max4(a, b, c, d float64) float64 { return max(max(a, b), max(c, d)) }

// ApplyTo updates the system's coordinates (and cell, when periodic) from the
// snapshot.
func (snap *Snapshot) ApplyTo(sys *System) error {
	if len(snap.Coordinates) != sys.AtomCount() {
		return NewRunError(ErrorTypeStructure,
			"snapshot holds %d atoms, system has %d", len(snap.Coordinates), sys.AtomCount())
	}
	sys.Coordinates = snap.Coordinates
	if sys.Periodicity == 3 && snap.Cell != nil {
		sys.Cell = snap.Cell
	}
	return nil
}
