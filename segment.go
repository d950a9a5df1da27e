package mdrun

import (
	"context"
	"fmt"
	"math"

	"github.com/deepnoodle-ai/mdrun/script"
)

// SegmentKind classifies a segment's control mode. The set is closed and the
// run loop handles every kind exhaustively.
type SegmentKind string

const (
	// SegmentInitialization carries the engine preamble (units, styles,
	// structure data). It never runs dynamics itself; its lines become the
	// header of every batch in the run.
	SegmentInitialization SegmentKind = "initialization"

	// SegmentFixed runs dynamics for a fixed duration.
	SegmentFixed SegmentKind = "fixed"

	// SegmentConverge runs dynamics until every sampled property is
	// statistically converged.
	SegmentConverge SegmentKind = "converge"
)

// Segment is one scheduled unit of engine work: an ordered batch of
// instruction lines plus a target duration and control mode. The run loop
// mutates only Time, when extending a converging segment.
type Segment struct {
	// ID is an opaque stable identifier, derived from the segment's position
	// in the workflow that supplied it.
	ID string `json:"id" yaml:"id"`

	Kind SegmentKind `json:"kind" yaml:"kind"`

	// Time is the target duration in fs. Ignored for initialization segments.
	Time float64 `json:"time,omitempty" yaml:"time,omitempty"`

	// Timestep is the integration timestep in fs.
	Timestep float64 `json:"timestep,omitempty" yaml:"timestep,omitempty"`

	// SamplingInterval is the property sampling interval in steps.
	SamplingInterval int `json:"sampling,omitempty" yaml:"sampling,omitempty"`

	// Instructions are the engine input lines for this segment. Lines may
	// contain ${...} expressions evaluated against the protocol variables
	// plus the derived values "nsteps", "timestep", "sampling" and "id".
	Instructions []string `json:"instructions,omitempty" yaml:"instructions,omitempty"`
}

// Steps returns the requested run length in engine steps.
func (s *Segment) Steps() int {
	if s.Timestep <= 0 {
		return 0
	}
	return int(math.Round(s.Time / s.Timestep))
}

// Render evaluates the segment's instruction lines against vars plus the
// segment's derived values.
func (s *Segment) Render(ctx context.Context, engine script.Compiler, vars map[string]any) ([]string, error) {
	globals := make(map[string]any, len(vars)+4)
	for k, v := range vars {
		globals[k] = v
	}
	globals["id"] = s.ID
	globals["nsteps"] = s.Steps()
	globals["timestep"] = s.Timestep
	globals["sampling"] = s.SamplingInterval

	lines := make([]string, 0, len(s.Instructions))
	for _, raw := range s.Instructions {
		line, err := script.EvalString(ctx, engine, raw, globals)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", s.ID, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Segment) validate() error {
	if s.ID == "" {
		return fmt.Errorf("segment id required")
	}
	switch s.Kind {
	case SegmentInitialization:
		return nil
	case SegmentFixed, SegmentConverge:
		if s.Time <= 0 {
			return fmt.Errorf("segment %s: time must be positive", s.ID)
		}
		if s.Timestep <= 0 {
			return fmt.Errorf("segment %s: timestep must be positive", s.ID)
		}
		if s.SamplingInterval < 0 {
			return fmt.Errorf("segment %s: sampling must not be negative", s.ID)
		}
		return nil
	default:
		return fmt.Errorf("segment %s: unknown kind %q", s.ID, s.Kind)
	}
}
