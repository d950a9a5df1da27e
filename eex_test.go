package mdrun

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadExpressionFile(t *testing.T) {
	data, err := json.Marshal(waterExpression())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "water.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	eex, err := LoadExpressionFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, eex.NAtoms())
	require.Equal(t, 2, eex.AtomTypes)
	require.Len(t, eex.Bonds, 2)
}

func TestLoadExpressionFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadExpressionFile(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})

	t.Run("no atoms", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
		_, err := LoadExpressionFile(path)
		require.Error(t, err)
		require.True(t, IsErrorType(err, ErrorTypeStructure))
	})
}

func TestExpressionSystem(t *testing.T) {
	eex := waterExpression()
	sys := eex.System()
	require.Equal(t, 3, sys.AtomCount())
	require.Equal(t, []string{"O", "H", "H"}, sys.Elements)
	require.Equal(t, [3]float64{0.96, 0, 0}, sys.Coordinates[1])
	require.Equal(t, 0, sys.Periodicity)
}
