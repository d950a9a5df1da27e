package mdrun

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const orthoDump = `ITEM: TIMESTEP
1000
ITEM: NUMBER OF ATOMS
3
ITEM: BOX BOUNDS pp pp pp
0.0 10.0
0.0 20.0
0.0 30.0
ITEM: ATOMS id xu yu zu
1 0.1 0.2 0.3
2 1.1 1.2 1.3
3 2.1 2.2 2.3
`

func TestParseDumpOrthogonal(t *testing.T) {
	snap, err := ParseDump("run.dump.1000", orthoDump, 3)
	require.NoError(t, err)
	require.Equal(t, 1000, snap.Steps)
	require.Len(t, snap.Coordinates, 3)
	require.Equal(t, [3]float64{1.1, 1.2, 1.3}, snap.Coordinates[1])
	require.NotNil(t, snap.Cell)
	require.InDelta(t, 10.0, snap.Cell.A, 1e-9)
	require.InDelta(t, 20.0, snap.Cell.B, 1e-9)
	require.InDelta(t, 30.0, snap.Cell.C, 1e-9)
	require.Equal(t, 90.0, snap.Cell.Gamma)
}

func TestParseDumpTriclinic(t *testing.T) {
	// Bounds extended by the tilt factors, as the engine writes them:
	// lx = 10, ly = 10*sin(60), lz = 10, xy = 5.
	dump := `ITEM: TIMESTEP
500
ITEM: NUMBER OF ATOMS
1
ITEM: BOX BOUNDS xy xz yz pp pp pp
0.0 15.0 5.0
0.0 8.6602540378 0.0
0.0 10.0 0.0
ITEM: ATOMS id xu yu zu
1 0.0 0.0 0.0
`
	snap, err := ParseDump("run.dump.500", dump, 1)
	require.NoError(t, err)
	require.NotNil(t, snap.Cell)
	require.InDelta(t, 10.0, snap.Cell.A, 1e-6)
	require.InDelta(t, 10.0, snap.Cell.B, 1e-6)
	require.InDelta(t, 10.0, snap.Cell.C, 1e-6)
	require.InDelta(t, 60.0, snap.Cell.Gamma, 1e-6)
	require.InDelta(t, 90.0, snap.Cell.Alpha, 1e-6)
	require.InDelta(t, 90.0, snap.Cell.Beta, 1e-6)
}

func TestParseDumpAtomCountMismatch(t *testing.T) {
	_, err := ParseDump("run.dump.1000", orthoDump, 5)
	require.Error(t, err)
	require.True(t, IsErrorType(err, ErrorTypeStructure))
}

func TestParseDumpBadMarker(t *testing.T) {
	_, err := ParseDump("bogus.txt", "LAMMPS log output\n", 3)
	require.Error(t, err)
	require.True(t, IsErrorType(err, ErrorTypeCheckpointName))
	require.Contains(t, err.Error(), "bogus.txt")
}

func TestSnapshotApplyTo(t *testing.T) {
	snap, err := ParseDump("run.dump.1000", orthoDump, 3)
	require.NoError(t, err)

	sys := &System{
		Elements:    []string{"O", "H", "H"},
		Coordinates: make([][3]float64, 3),
		Cell:        &Cell{A: 1, B: 1, C: 1, Alpha: 90, Beta: 90, Gamma: 90},
		Periodicity: 3,
	}
	require.NoError(t, snap.ApplyTo(sys))
	require.Equal(t, snap.Coordinates, sys.Coordinates)
	require.Equal(t, snap.Cell, sys.Cell)
}

func TestSnapshotApplyToFiniteSystemKeepsNoCell(t *testing.T) {
	snap, err := ParseDump("run.dump.1000", orthoDump, 3)
	require.NoError(t, err)

	sys := &System{Coordinates: make([][3]float64, 3)}
	require.NoError(t, snap.ApplyTo(sys))
	require.Nil(t, sys.Cell)
}

func TestSnapshotApplyToMismatch(t *testing.T) {
	snap := &Snapshot{Coordinates: make([][3]float64, 2)}
	sys := &System{Coordinates: make([][3]float64, 3)}
	err := snap.ApplyTo(sys)
	require.Error(t, err)
	require.True(t, IsErrorType(err, ErrorTypeStructure))
}
