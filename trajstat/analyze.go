package trajstat

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNoIndependentSamples is returned when decorrelation yields no samples
// at all. A property stream failing this way is skipped by callers, never
// treated as fatal for the whole analysis.
var ErrNoIndependentSamples = errors.New("trajstat: decorrelation yielded no independent samples")

const (
	// minTailForACF is the minimum equilibrated-tail length for the ACF to
	// be estimated reliably. Shorter tails raise the short-production
	// warning and skip ACF computation entirely.
	minTailForACF = 10000

	// minEffectiveSamples is the decorrelated sample count below which the
	// standard error itself is considered unreliable.
	minEffectiveSamples = 100
)

// Series is one scalar property sampled at uniform time intervals.
type Series struct {
	// Values are the samples, in the property's native units.
	Values []float64

	// Spacing is the time between successive samples, in the stream's
	// native time units (assumed constant across the whole stream).
	Spacing float64
}

// Result is the statistical summary of one analyzed Series. Times are in the
// series' native time units.
type Result struct {
	Mean                float64
	StdErr              float64
	NSamples            int     // decorrelated sample count
	Inefficiency        float64 // g, samples between independent observations
	EquilibrationTime   float64 // t0
	AutocorrTime        float64 // tau
	ShortProduction     bool    // equilibrated tail too short to estimate the ACF
	FewEffectiveSamples bool    // fewer than minEffectiveSamples decorrelated samples
	ACF                 []float64
	ACFConfidence       [][2]float64
}

// Analyze runs the full pipeline on one property stream: equilibration
// detection, decorrelated subsampling, point estimates, and the diagnostic
// autocorrelation function when the equilibrated tail is long enough.
func Analyze(s *Series) (*Result, error) {
	if len(s.Values) < 2 {
		return nil, fmt.Errorf("trajstat: need at least 2 samples, have %d", len(s.Values))
	}
	if s.Spacing <= 0 {
		return nil, fmt.Errorf("trajstat: sample spacing must be positive, got %g", s.Spacing)
	}

	t0, g, _ := DetectEquilibration(s.Values)
	tail := s.Values[t0:]

	tau := s.Spacing * (g - 1) / 2
	if tau < s.Spacing/2 {
		tau = s.Spacing / 2
	}

	indices := SubsampleIndices(len(tail), g)
	if len(indices) == 0 {
		return nil, ErrNoIndependentSamples
	}
	decorrelated := make([]float64, len(indices))
	for i, idx := range indices {
		decorrelated[i] = tail[idx]
	}

	n := len(decorrelated)
	result := &Result{
		Mean:                stat.Mean(decorrelated, nil),
		StdErr:              stat.PopStdDev(decorrelated, nil) / math.Sqrt(float64(n)),
		NSamples:            n,
		Inefficiency:        g,
		EquilibrationTime:   float64(t0) * s.Spacing,
		AutocorrTime:        tau,
		FewEffectiveSamples: n < minEffectiveSamples,
	}

	if len(tail) < minTailForACF {
		result.ShortProduction = true
		return result, nil
	}

	nlags := 4 * int(math.Ceil(g+0.5))
	if half := len(tail) / 2; nlags > half {
		nlags = half
	}
	result.ACF, result.ACFConfidence = ACF(tail, nlags)
	return result, nil
}

// Converged reports whether the result passes both advisory warnings, the
// acceptance criterion used by the convergence loop.
func (r *Result) Converged() bool {
	return !r.ShortProduction && !r.FewEffectiveSamples
}
