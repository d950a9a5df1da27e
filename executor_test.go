package mdrun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalExecutorRun(t *testing.T) {
	executor := NewLocalExecutor(nil)
	result, err := executor.Run(context.Background(), Job{
		Command: []string{"/bin/sh", "-c", "cat input.txt; cp input.txt out.dump.100"},
		Files: map[string]string{
			"input.txt": "hello engine\n",
		},
		ReturnPatterns: []string{"*.dump.*"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello engine\n", result.Stdout)
	require.Equal(t, "hello engine\n", result.Files["out.dump.100"])
}

func TestLocalExecutorFailure(t *testing.T) {
	executor := NewLocalExecutor(nil)
	_, err := executor.Run(context.Background(), Job{
		Command: []string{"/bin/sh", "-c", "echo boom >&2; exit 3"},
	})
	require.Error(t, err)
	require.True(t, IsErrorType(err, ErrorTypeExecution))
	require.Contains(t, err.Error(), "boom")
}

func TestLocalExecutorEmptyCommand(t *testing.T) {
	executor := NewLocalExecutor(nil)
	_, err := executor.Run(context.Background(), Job{})
	require.Error(t, err)
	require.True(t, IsErrorType(err, ErrorTypeExecution))
}

func TestEngineCommand(t *testing.T) {
	t.Run("serial by default", func(t *testing.T) {
		cfg := DefaultEngineConfig()
		require.Equal(t, []string{"lmp_serial", "-in", "input.dat"}, cfg.Command("input.dat", 5000))
	})

	t.Run("mpi when enabled and parallel pays off", func(t *testing.T) {
		cfg := DefaultEngineConfig()
		cfg.UseMPI = true
		cfg.Processes = 4
		require.Equal(t,
			[]string{"mpiexec", "-np", "4", "lmp_mpi", "-in", "input.dat"},
			cfg.Command("input.dat", 5000))
	})

	t.Run("single process falls back to serial", func(t *testing.T) {
		cfg := DefaultEngineConfig()
		cfg.UseMPI = true
		cfg.Processes = 1
		require.Equal(t, []string{"lmp_serial", "-in", "input.dat"}, cfg.Command("input.dat", 100))
	})
}

func TestProcessCount(t *testing.T) {
	t.Run("explicit count wins", func(t *testing.T) {
		cfg := EngineConfig{Processes: 3, MaxProcesses: 8}
		require.Equal(t, 3, cfg.ProcessCount(1_000_000))
	})

	t.Run("derived from atoms per core", func(t *testing.T) {
		cfg := EngineConfig{AtomsPerCore: 1000, MaxProcesses: 64}
		require.Equal(t, 5, cfg.ProcessCount(5000))
	})

	t.Run("at least one process", func(t *testing.T) {
		cfg := EngineConfig{AtomsPerCore: 1000, MaxProcesses: 64}
		require.Equal(t, 1, cfg.ProcessCount(10))
	})

	t.Run("clamped to max", func(t *testing.T) {
		cfg := EngineConfig{AtomsPerCore: 1000, MaxProcesses: 4}
		require.Equal(t, 4, cfg.ProcessCount(1_000_000))
	})
}
