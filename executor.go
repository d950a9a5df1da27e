package mdrun

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/cpu"
)

// Job describes one engine invocation: the command line, the input files to
// stage into the working directory, and glob patterns selecting which
// produced files to return.
type Job struct {
	Command        []string
	Files          map[string]string
	ReturnPatterns []string
}

// JobResult captures the outcome of a successful engine invocation.
type JobResult struct {
	Stdout string
	Stderr string
	Files  map[string]string
}

// Executor runs one engine invocation to completion. An error return is
// fatal for the whole workflow step; no partial retry is attempted at this
// layer.
type Executor interface {
	Run(ctx context.Context, job Job) (*JobResult, error)
}

// LocalExecutor runs the engine as a local subprocess in a scratch
// directory.
type LocalExecutor struct {
	logger *slog.Logger
}

// NewLocalExecutor creates a LocalExecutor.
func NewLocalExecutor(logger *slog.Logger) *LocalExecutor {
	if logger == nil {
		logger = NewNullLogger()
	}
	return &LocalExecutor{logger: logger}
}

// Run stages the job's files into a fresh scratch directory, executes the
// command there, and returns captured stdout, stderr, and the content of
// every file matching a return pattern.
func (e *LocalExecutor) Run(ctx context.Context, job Job) (*JobResult, error) {
	if len(job.Command) == 0 {
		return nil, NewRunError(ErrorTypeExecution, "empty command")
	}

	scratch, err := os.MkdirTemp("", "mdrun-")
	if err != nil {
		return nil, WrapRunError(ErrorTypeExecution, err, "failed to create scratch directory")
	}
	defer os.RemoveAll(scratch)

	for name, content := range job.Files {
		if err := os.WriteFile(filepath.Join(scratch, name), []byte(content), 0644); err != nil {
			return nil, WrapRunError(ErrorTypeExecution, err, "failed to stage input file %s", name)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, job.Command[0], job.Command[1:]...)
	cmd.Dir = scratch
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Info("running engine", "command", job.Command)
	if err := cmd.Run(); err != nil {
		return nil, WrapRunError(ErrorTypeExecution, err,
			"engine command %v failed (stderr: %s)", job.Command, stderr.String())
	}

	result := &JobResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Files:  map[string]string{},
	}
	for _, pattern := range job.ReturnPatterns {
		matches, err := filepath.Glob(filepath.Join(scratch, pattern))
		if err != nil {
			return nil, WrapRunError(ErrorTypeExecution, err, "bad return pattern %q", pattern)
		}
		for _, match := range matches {
			data, err := os.ReadFile(match)
			if err != nil {
				return nil, WrapRunError(ErrorTypeExecution, err, "failed to read produced file %s", match)
			}
			result.Files[filepath.Base(match)] = string(data)
		}
	}
	e.logger.Debug("engine run complete", "returned_files", len(result.Files))
	return result, nil
}

// EngineConfig selects the engine binaries and the parallel setup. The
// process count is decided once per workflow, not per segment.
type EngineConfig struct {
	Serial       string `yaml:"serial"`
	MPI          string `yaml:"mpi"`
	MPIExec      string `yaml:"mpiexec"`
	UseMPI       bool   `yaml:"use_mpi"`
	Processes    int    `yaml:"processes"`      // 0 means derive from atom count
	MaxProcesses int    `yaml:"max_processes"`  // 0 means physical CPU count
	AtomsPerCore int    `yaml:"atoms_per_core"` // 0 means DefaultAtomsPerCore
}

// DefaultAtomsPerCore is the optimal number of atoms per core used to derive
// an MPI process count when none is configured.
const DefaultAtomsPerCore = 1000

// DefaultEngineConfig returns the serial engine defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Serial:       "lmp_serial",
		MPI:          "lmp_mpi",
		MPIExec:      "mpiexec",
		AtomsPerCore: DefaultAtomsPerCore,
	}
}

// Command builds the engine command line for the given input file. With MPI
// enabled, the process count comes from ProcessCount; a count of one falls
// back to the serial engine.
func (c EngineConfig) Command(inputFile string, nAtoms int) []string {
	if c.UseMPI {
		if np := c.ProcessCount(nAtoms); np > 1 {
			return []string{c.MPIExec, "-np", fmt.Sprintf("%d", np), c.MPI, "-in", inputFile}
		}
	}
	return []string{c.Serial, "-in", inputFile}
}

// ProcessCount returns the MPI process count for a system of nAtoms atoms:
// the configured count if set, otherwise one process per AtomsPerCore atoms,
// clamped to [1, MaxProcesses].
func (c EngineConfig) ProcessCount(nAtoms int) int {
	np := c.Processes
	if np <= 0 {
		perCore := c.AtomsPerCore
		if perCore <= 0 {
			perCore = DefaultAtomsPerCore
		}
		np = int(math.Round(float64(nAtoms) / float64(perCore)))
	}
	if np < 1 {
		np = 1
	}
	maxNP := c.MaxProcesses
	if maxNP <= 0 {
		if count, err := cpu.Counts(false); err == nil && count > 0 {
			maxNP = count
		}
	}
	if maxNP > 0 && np > maxNP {
		np = maxNP
	}
	return np
}
