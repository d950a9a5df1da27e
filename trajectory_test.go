package mdrun

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleTrajectory = `!MDRUN trajectory
! fields: step time T P
Step Time Temp Press
100 100.0 298.1 1.01
200 200.0 301.4 0.98
300 300.0 299.2 1.05
`

func TestParseTrajectory(t *testing.T) {
	traj, err := ParseTrajectory(sampleTrajectory)
	require.NoError(t, err)
	require.Equal(t, []string{"Temp", "Press"}, traj.Properties)
	require.Equal(t, 100.0, traj.Spacing)
	require.Equal(t, 3, traj.Len())

	temp := traj.Series("Temp")
	require.NotNil(t, temp)
	require.Equal(t, []float64{298.1, 301.4, 299.2}, temp.Values)
	require.Equal(t, 100.0, temp.Spacing)

	require.Nil(t, traj.Series("Density"))
}

func TestParseTrajectoryErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ParseTrajectory("! only comments\n")
		require.Error(t, err)
		require.Contains(t, err.Error(), "empty")
	})

	t.Run("no properties", func(t *testing.T) {
		_, err := ParseTrajectory("Step Time\n1 1.0\n2 2.0\n")
		require.Error(t, err)
	})

	t.Run("too few samples", func(t *testing.T) {
		_, err := ParseTrajectory("Step Time Temp\n1 1.0 300.0\n")
		require.Error(t, err)
		require.Contains(t, err.Error(), "at least 2 samples")
	})

	t.Run("ragged row", func(t *testing.T) {
		_, err := ParseTrajectory("Step Time Temp\n1 1.0 300.0\n2 2.0\n")
		require.Error(t, err)
	})

	t.Run("bad value", func(t *testing.T) {
		_, err := ParseTrajectory("Step Time Temp\n1 1.0 300.0\n2 2.0 oops\n")
		require.Error(t, err)
	})

	t.Run("non-positive spacing", func(t *testing.T) {
		_, err := ParseTrajectory("Step Time Temp\n1 2.0 300.0\n2 2.0 301.0\n")
		require.Error(t, err)
		require.Contains(t, err.Error(), "spacing")
	})
}
