package mdrun

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.jetify.com/typeid"
)

// NewRunID returns a new unique identifier for a run directory.
func NewRunID() string {
	id, err := typeid.WithPrefix("run")
	if err != nil {
		panic(err)
	}
	return id.String()
}

// Store keeps all artifacts of one run in a single directory: batch input
// files, engine checkpoint (dump) files, trajectories, and captured output.
// Checkpoints are append-only; a newer snapshot supersedes an older one but
// never rewrites it.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a run-scoped store rooted at dir. An empty dir creates a
// fresh run directory named with a unique run ID under the current directory.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		dir = NewRunID()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = NewNullLogger()
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the run directory.
func (s *Store) Dir() string {
	return s.dir
}

// BatchName returns the deterministic base name for a batch input: the chain
// identifier plus the iteration count. The same inputs always produce the
// same name.
func BatchName(chainID string, iteration int) string {
	return fmt.Sprintf("%s_iter_%d", chainID, iteration)
}

// DumpPattern returns the checkpoint glob pattern for a batch base name, with
// "*" as the placeholder for the step count.
func DumpPattern(base string) string {
	return base + ".dump.*"
}

// DumpName returns the checkpoint filename for a batch base name at a given
// step count.
func DumpName(base string, steps int) string {
	return fmt.Sprintf("%s.dump.%d", base, steps)
}

// WriteBatch writes a batch input file named "<chainID>_iter_<iteration>.dat"
// and returns its path. Writing is idempotent: identical arguments produce
// the same file with the same content.
func (s *Store) WriteBatch(chainID string, iteration int, content string) (string, error) {
	return s.WriteFile(BatchName(chainID, iteration)+".dat", content)
}

// WriteFile writes a named artifact into the run directory and returns its
// path.
func (s *Store) WriteFile(name, content string) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// ReadFile reads a named artifact from the run directory.
func (s *Store) ReadFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Glob returns the names of run artifacts matching the pattern.
func (s *Store) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names, nil
}

// LatestSnapshot locates the checkpoint file matching pattern with the
// maximum step-count suffix and returns its name and step count. The result
// is independent of filesystem enumeration order. It fails with a
// checkpoint-not-found error when nothing matches (the engine silently
// produced no output) and with a malformed-name error when a matching file's
// suffix is not an integer.
func (s *Store) LatestSnapshot(pattern string) (string, int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return "", 0, WrapRunError(ErrorTypeCheckpointNotFound, err, "bad checkpoint pattern %q", pattern)
	}
	if len(matches) == 0 {
		return "", 0, NewRunError(ErrorTypeCheckpointNotFound,
			"could not find any file with the pattern %q in %s", pattern, s.dir)
	}

	best := ""
	bestSteps := -1
	for _, match := range matches {
		suffix := strings.TrimPrefix(filepath.Ext(match), ".")
		steps, err := strconv.Atoi(suffix)
		if err != nil {
			return "", 0, WrapRunError(ErrorTypeCheckpointName, err,
				"could not extract step count from checkpoint file %q", match)
		}
		if steps > bestSteps {
			bestSteps = steps
			best = filepath.Base(match)
		}
	}
	s.logger.Debug("resolved latest snapshot", "pattern", pattern, "file", best, "steps", bestSteps)
	return best, bestSteps, nil
}
