package mdrun

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrthogonalCellRoundTrip(t *testing.T) {
	cell := Cell{A: 10, B: 20, C: 30, Alpha: 90, Beta: 90, Gamma: 90}
	box := cell.Box()
	require.Equal(t, Box{Lx: 10, Ly: 20, Lz: 30}, box)
	require.True(t, box.Orthogonal())

	back := box.Cell()
	require.Equal(t, cell, back)
}

func TestOrthogonalBoxAngles(t *testing.T) {
	// An orthogonal box must map to 90 degree angles, never zero.
	cell := Box{Lx: 5, Ly: 6, Lz: 7}.Cell()
	require.Equal(t, 90.0, cell.Alpha)
	require.Equal(t, 90.0, cell.Beta)
	require.Equal(t, 90.0, cell.Gamma)
}

func TestTriclinicCellRoundTrip(t *testing.T) {
	cell := Cell{A: 10, B: 12, C: 14, Alpha: 80, Beta: 95, Gamma: 105}
	box := cell.Box()
	require.False(t, box.Orthogonal())
	require.Equal(t, cell.A, box.Lx)

	back := box.Cell()
	require.InDelta(t, cell.A, back.A, 1e-9)
	require.InDelta(t, cell.B, back.B, 1e-9)
	require.InDelta(t, cell.C, back.C, 1e-9)
	require.InDelta(t, cell.Alpha, back.Alpha, 1e-9)
	require.InDelta(t, cell.Beta, back.Beta, 1e-9)
	require.InDelta(t, cell.Gamma, back.Gamma, 1e-9)
}

func TestTriclinicTiltFactors(t *testing.T) {
	cell := Cell{A: 10, B: 10, C: 10, Alpha: 90, Beta: 90, Gamma: 60}
	box := cell.Box()
	require.InDelta(t, 5.0, box.Xy, 1e-9) // b*cos(60)
	require.InDelta(t, 10*math.Sin(math.Pi/3), box.Ly, 1e-9)
	require.InDelta(t, 0.0, box.Xz, 1e-9)
	require.InDelta(t, 0.0, box.Yz, 1e-9)
	require.InDelta(t, 10.0, box.Lz, 1e-9)
}
