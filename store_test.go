package mdrun

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchNaming(t *testing.T) {
	require.Equal(t, "chain_1_2_iter_0", BatchName("chain_1_2", 0))
	require.Equal(t, "chain_3_iter_7", BatchName("chain_3", 7))
	require.Equal(t, "run.dump.*", DumpPattern("run"))
	require.Equal(t, "run.dump.5000", DumpName("run", 5000))
}

func TestStoreWriteBatchIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	path1, err := store.WriteBatch("chain_1", 0, "run 1000\n")
	require.NoError(t, err)
	path2, err := store.WriteBatch("chain_1", 0, "run 1000\n")
	require.NoError(t, err)
	require.Equal(t, path1, path2)
	require.Equal(t, "chain_1_iter_0.dat", filepath.Base(path1))

	content, err := store.ReadFile("chain_1_iter_0.dat")
	require.NoError(t, err)
	require.Equal(t, "run 1000\n", content)
}

func TestLatestSnapshot(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	// Lexicographic order would pick .dump.900; step order must pick .dump.5000.
	for _, name := range []string{"run.dump.900", "run.dump.5000", "run.dump.100"} {
		_, err := store.WriteFile(name, "snapshot")
		require.NoError(t, err)
	}

	name, steps, err := store.LatestSnapshot(DumpPattern("run"))
	require.NoError(t, err)
	require.Equal(t, "run.dump.5000", name)
	require.Equal(t, 5000, steps)
}

func TestLatestSnapshotNotFound(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, _, err = store.LatestSnapshot(DumpPattern("missing"))
	require.Error(t, err)
	require.True(t, IsErrorType(err, ErrorTypeCheckpointNotFound))
}

func TestLatestSnapshotMalformedName(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = store.WriteFile("run.dump.final", "snapshot")
	require.NoError(t, err)

	_, _, err = store.LatestSnapshot(DumpPattern("run"))
	require.Error(t, err)
	require.True(t, IsErrorType(err, ErrorTypeCheckpointName))
}

func TestNewRunIDUnique(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	require.NotEqual(t, a, b)
	require.Contains(t, a, "run")
}
