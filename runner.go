package mdrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deepnoodle-ai/mdrun/script"
	"github.com/deepnoodle-ai/mdrun/trajstat"
)

// DefaultMaxIterations is the per-segment ceiling on convergence iterations.
// The statistical criterion alone decides when to stop; the ceiling converts
// "never converges" into a reported fatal condition instead of an unbounded
// loop.
const DefaultMaxIterations = 20

// returnPatterns selects which engine-produced files are collected after
// every invocation.
var returnPatterns = []string{"summary_*.txt", "trajectory_*.trj", "*.dump.*"}

// RunnerOptions configures a run.
type RunnerOptions struct {
	Protocol    *Protocol
	Executor    Executor
	Store       *Store
	Engine      EngineConfig
	Compiler    script.Compiler
	Logger      *slog.Logger
	Callbacks   RunCallbacks
	Constraints ConstraintOptions

	// System is the initial structure state. When nil it is derived from
	// Expression.
	System *System

	// Expression, when set, is encoded into the structure data file staged
	// with every engine invocation.
	Expression *EnergyExpression

	// MaxIterations caps the extend loop per convergence-controlled
	// segment. Zero means DefaultMaxIterations; a negative value disables
	// the guard entirely.
	MaxIterations int
}

// Runner is the convergence-controlled run loop. It accumulates non-terminal
// segments into a combined engine input, executes, restarts
// convergence-controlled segments from checkpoints, analyzes every produced
// property stream, and decides to extend, accept, or fail.
//
// A Runner runs one chain at a time and is not safe for concurrent use; run
// several Runners for concurrent workflows.
type Runner struct {
	protocol      *Protocol
	executor      Executor
	store         *Store
	engine        EngineConfig
	compiler      script.Compiler
	logger        *slog.Logger
	callbacks     RunCallbacks
	constraints   ConstraintOptions
	system        *System
	expression    *EnergyExpression
	maxIterations int

	started bool

	// Chain state. The header and pending lines rebuild the combined input
	// for every execution; baseline names the snapshot the next batch
	// restarts from.
	initHeader    []string
	pending       []string
	history       []*Segment
	staged        map[string]string
	baseline      string
	baselineSteps int
}

// NewRunner creates a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Protocol == nil {
		return nil, fmt.Errorf("protocol is required")
	}
	if opts.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	system := opts.System
	if system == nil && opts.Expression != nil {
		system = opts.Expression.System()
	}
	if system == nil || system.AtomCount() == 0 {
		return nil, NewRunError(ErrorTypeStructure, "there is no structure to simulate")
	}
	if opts.Logger == nil {
		opts.Logger = NewNullLogger()
	}
	if opts.Store == nil {
		store, err := NewStore("", opts.Logger)
		if err != nil {
			return nil, err
		}
		opts.Store = store
	}
	if opts.Engine == (EngineConfig{}) {
		opts.Engine = DefaultEngineConfig()
	}
	if opts.Compiler == nil {
		// Register every name the segment templates may reference, so the
		// compiled expressions can resolve them.
		globals := map[string]any{
			"id": "", "nsteps": 0, "timestep": 0.0, "sampling": 0, "rattle_fix": "",
		}
		for k, v := range opts.Protocol.Variables() {
			globals[k] = v
		}
		opts.Compiler = script.NewRisorEngine(globals)
	}
	if opts.Callbacks == nil {
		opts.Callbacks = BaseRunCallbacks{}
	}
	maxIterations := opts.MaxIterations
	if maxIterations == 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Runner{
		protocol:      opts.Protocol,
		executor:      opts.Executor,
		store:         opts.Store,
		engine:        opts.Engine,
		compiler:      opts.Compiler,
		logger:        opts.Logger.With("protocol", opts.Protocol.Name()),
		callbacks:     opts.Callbacks,
		constraints:   opts.Constraints,
		system:        system,
		expression:    opts.Expression,
		maxIterations: maxIterations,
		staged:        map[string]string{},
	}, nil
}

// System returns the structure state, updated in place as checkpoints are
// read back.
func (r *Runner) System() *System {
	return r.system
}

// Run executes the whole protocol to completion. Any error is fatal for the
// run; nothing is retried.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	if r.started {
		return nil, fmt.Errorf("runner already started")
	}
	r.started = true

	report := &RunReport{RunDir: r.store.Dir()}
	vars := make(map[string]any, len(r.protocol.Variables())+1)
	for k, v := range r.protocol.Variables() {
		vars[k] = v
	}
	vars["rattle_fix"] = ""

	if r.expression != nil {
		content, err := EncodeDataFile(r.expression)
		if err != nil {
			return nil, err
		}
		r.staged["structure.dat"] = content
		if _, err := r.store.WriteFile("structure.dat", content); err != nil {
			return nil, err
		}
		vars["rattle_fix"] = RattleFix(r.expression, r.constraints)
	}

	for _, seg := range r.protocol.Segments() {
		switch seg.Kind {
		case SegmentInitialization, SegmentFixed:
			lines, err := seg.Render(ctx, r.compiler, vars)
			if err != nil {
				return nil, err
			}
			if seg.Kind == SegmentInitialization {
				r.initHeader = lines
			} else {
				r.pending = append(r.pending, lines...)
			}
			r.history = append(r.history, seg)
		case SegmentConverge:
			segReport, err := r.iterate(ctx, seg, vars)
			if err != nil {
				return nil, err
			}
			report.Segments = append(report.Segments, segReport)
		}
	}

	if len(r.history) > 0 {
		if err := r.flush(ctx, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// chainID names the run chain accumulated so far: the concatenation of the
// accumulated segment identifiers.
func (r *Runner) chainID() string {
	id := "chain"
	for _, seg := range r.history {
		id += "_" + seg.ID
	}
	return id
}

// iterate handles one convergence-controlled segment: execute the
// accumulated batch once, then repeatedly restart the segment from the
// latest checkpoint, analyze, and either accept or double its duration.
func (r *Runner) iterate(ctx context.Context, seg *Segment, vars map[string]any) (*SegmentReport, error) {
	// Execute everything accumulated so far as one batch, emitting a
	// checkpoint to restart from.
	chain := r.chainID()
	accumBase := BatchName(chain, 0)
	batch := r.assembleBatch(r.pending, writeDumpLine(DumpPattern(accumBase)))
	if err := r.execute(ctx, chain, 0, batch); err != nil {
		return nil, err
	}
	if err := r.advanceBaseline(DumpPattern(accumBase)); err != nil {
		return nil, err
	}
	r.logger.Info("analyzing convergence segment", "segment", seg.ID, "after", chain)

	segChain := "chain_" + seg.ID
	report := &SegmentReport{SegmentID: seg.ID}
	for iteration := 0; ; iteration++ {
		if r.maxIterations > 0 && iteration >= r.maxIterations {
			return nil, NewRunError(ErrorTypeNotConverged,
				"segment %s did not converge within %d iterations", seg.ID, r.maxIterations)
		}

		lines, err := seg.Render(ctx, r.compiler, vars)
		if err != nil {
			return nil, err
		}
		curBase := BatchName(segChain, iteration)
		curDump := DumpName(curBase, seg.Steps())
		batch := r.assembleBatch(lines, writeDumpLine(curDump))
		if err := r.execute(ctx, segChain, iteration, batch); err != nil {
			return nil, err
		}
		if err := r.advanceBaseline(DumpPattern(curBase)); err != nil {
			return nil, err
		}

		results, err := r.analyze(ctx, seg, iteration)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, NewRunError(ErrorTypeExecution,
				"segment %s produced no property streams to analyze", seg.ID)
		}
		report.Iterations = iteration + 1
		report.Properties = results

		if allConverged(results) {
			report.Converged = true
			r.logger.Info("segment converged", "segment", seg.ID, "iterations", report.Iterations)
			// The chain restarts from this segment's checkpoint.
			r.history = nil
			r.pending = nil
			return report, nil
		}

		seg.Time *= 2
		r.logger.Info("extending segment", "segment", seg.ID,
			"iteration", iteration, "new_time_fs", seg.Time)
	}
}

// flush executes whatever is still accumulated at the end of the workflow as
// one final batch and analyzes every accumulated segment, without gating on
// convergence.
func (r *Runner) flush(ctx context.Context, report *RunReport) error {
	chain := r.chainID()
	base := BatchName(chain, 0)
	batch := r.assembleBatch(r.pending, writeDumpLine(DumpPattern(base)))
	if err := r.execute(ctx, chain, 0, batch); err != nil {
		return err
	}
	if err := r.advanceBaseline(DumpPattern(base)); err != nil {
		return err
	}

	for _, seg := range r.history {
		if seg.Kind == SegmentInitialization {
			continue
		}
		results, err := r.analyze(ctx, seg, 0)
		if err != nil {
			return err
		}
		report.Segments = append(report.Segments, &SegmentReport{
			SegmentID:  seg.ID,
			Iterations: 1,
			Properties: results,
		})
	}
	r.history = nil
	r.pending = nil
	return nil
}

// assembleBatch builds one complete engine input: the initialization header,
// a restart instruction when a baseline snapshot exists, the body, and the
// checkpoint-emission instruction.
func (r *Runner) assembleBatch(body []string, writeDump string) []string {
	batch := make([]string, 0, len(r.initHeader)+len(body)+2)
	batch = append(batch, r.initHeader...)
	if r.baseline != "" {
		batch = append(batch, readDumpLine(r.baseline, r.baselineSteps))
	}
	batch = append(batch, body...)
	batch = append(batch, writeDump)
	return batch
}

// execute writes the batch input, stages it together with the structure file
// and the baseline snapshot, runs the engine, and persists everything it
// returned into the run directory.
func (r *Runner) execute(ctx context.Context, chainID string, iteration int, batch []string) error {
	content := strings.Join(batch, "\n") + "\n"
	if _, err := r.store.WriteBatch(chainID, iteration, content); err != nil {
		return err
	}
	inputFile := BatchName(chainID, iteration) + ".dat"

	files := make(map[string]string, len(r.staged)+2)
	for name, data := range r.staged {
		files[name] = data
	}
	files[inputFile] = content
	if r.baseline != "" {
		data, err := r.store.ReadFile(r.baseline)
		if err != nil {
			return WrapRunError(ErrorTypeCheckpointNotFound, err,
				"baseline snapshot %s disappeared", r.baseline)
		}
		files[r.baseline] = data
	}

	event := &EngineRunEvent{
		ChainID:   chainID,
		Iteration: iteration,
		InputFile: inputFile,
		Command:   r.engine.Command(inputFile, r.system.AtomCount()),
	}
	r.callbacks.BeforeEngineRun(ctx, event)
	result, err := r.executor.Run(ctx, Job{
		Command:        event.Command,
		Files:          files,
		ReturnPatterns: returnPatterns,
	})
	if err != nil {
		event.Error = err
		r.callbacks.AfterEngineRun(ctx, event)
		if ErrorType(err) != "" {
			return err
		}
		return WrapRunError(ErrorTypeExecution, err, "there was an error running the engine")
	}
	event.Stdout = result.Stdout
	event.Stderr = result.Stderr
	r.callbacks.AfterEngineRun(ctx, event)

	if _, err := r.store.WriteFile("stdout.txt", result.Stdout); err != nil {
		return err
	}
	if result.Stderr != "" {
		r.logger.Warn("engine wrote to stderr", "chain", chainID, "stderr", result.Stderr)
		if _, err := r.store.WriteFile("stderr.txt", result.Stderr); err != nil {
			return err
		}
	}
	for name, data := range result.Files {
		if _, err := r.store.WriteFile(name, data); err != nil {
			return err
		}
	}
	return nil
}

// advanceBaseline resolves the checkpoint with the maximum step count from
// the last execution and applies it to the structure state.
func (r *Runner) advanceBaseline(pattern string) error {
	name, steps, err := r.store.LatestSnapshot(pattern)
	if err != nil {
		return err
	}
	content, err := r.store.ReadFile(name)
	if err != nil {
		return WrapRunError(ErrorTypeCheckpointNotFound, err, "failed to read snapshot %s", name)
	}
	snap, err := ParseDump(name, content, r.system.AtomCount())
	if err != nil {
		return err
	}
	if err := snap.ApplyTo(r.system); err != nil {
		return err
	}
	r.baseline = name
	r.baselineSteps = steps
	r.logger.Debug("baseline advanced", "snapshot", name, "steps", steps)
	return nil
}

// analyze runs the statistical analyzer over every property stream the
// segment produced. A stream that yields no independent samples is skipped
// with a diagnostic; every other failure is fatal.
func (r *Runner) analyze(ctx context.Context, seg *Segment, iteration int) (map[string]*trajstat.Result, error) {
	names, err := r.store.Glob("trajectory_*_" + seg.ID + ".trj")
	if err != nil {
		return nil, fmt.Errorf("failed to find trajectories for segment %s: %w", seg.ID, err)
	}

	results := map[string]*trajstat.Result{}
	for _, name := range names {
		content, err := r.store.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read trajectory %s: %w", name, err)
		}
		traj, err := ParseTrajectory(content)
		if err != nil {
			return nil, fmt.Errorf("trajectory %s: %w", name, err)
		}
		r.logger.Info("analyzing trajectory", "file", name,
			"segment", seg.ID, "samples", traj.Len(), "properties", len(traj.Properties))

		for _, property := range traj.Properties {
			result, err := trajstat.Analyze(traj.Series(property))
			if errors.Is(err, trajstat.ErrNoIndependentSamples) {
				r.logger.Warn("skipping property with no independent samples",
					"trajectory", name, "property", property)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("analysis of %s in %s failed: %w", property, name, err)
			}
			results[property] = result
			r.callbacks.AfterPropertyAnalysis(ctx, &PropertyAnalysisEvent{
				SegmentID:  seg.ID,
				Iteration:  iteration,
				Trajectory: name,
				Property:   property,
				Result:     result,
			})
		}
	}
	return results, nil
}

// allConverged applies the acceptance rule: every analyzed property must
// pass both warnings.
func allConverged(results map[string]*trajstat.Result) bool {
	for _, result := range results {
		if !result.Converged() {
			return false
		}
	}
	return true
}

func writeDumpLine(file string) string {
	return "write_dump          all custom  " + file + " id xu yu zu modify flush yes sort id"
}

func readDumpLine(file string, steps int) string {
	return fmt.Sprintf("read_dump           %s %d x y z", file, steps)
}
