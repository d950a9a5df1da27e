package mdrun

import (
	"context"

	"github.com/deepnoodle-ai/mdrun/trajstat"
)

// EngineRunEvent describes one engine invocation.
type EngineRunEvent struct {
	ChainID   string
	Iteration int
	InputFile string
	Command   []string
	Stdout    string
	Stderr    string
	Error     error
}

// PropertyAnalysisEvent describes one analyzed property stream.
type PropertyAnalysisEvent struct {
	SegmentID  string
	Iteration  int
	Trajectory string
	Property   string
	Result     *trajstat.Result
}

// RunCallbacks observe the run loop's progress.
type RunCallbacks interface {
	BeforeEngineRun(ctx context.Context, event *EngineRunEvent)
	AfterEngineRun(ctx context.Context, event *EngineRunEvent)
	AfterPropertyAnalysis(ctx context.Context, event *PropertyAnalysisEvent)
}

// BaseRunCallbacks is a no-op implementation of RunCallbacks, meant to be
// embedded by implementations that only care about some events.
type BaseRunCallbacks struct{}

func (BaseRunCallbacks) BeforeEngineRun(ctx context.Context, event *EngineRunEvent) {}

func (BaseRunCallbacks) AfterEngineRun(ctx context.Context, event *EngineRunEvent) {}

func (BaseRunCallbacks) AfterPropertyAnalysis(ctx context.Context, event *PropertyAnalysisEvent) {}
