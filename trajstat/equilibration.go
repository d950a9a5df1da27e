package trajstat

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minCorrelationLag is the number of initial lags whose correlation estimate
// is always accumulated, even if an early estimate dips below zero.
const minCorrelationLag = 3

// StatisticalInefficiency returns g, the expected spacing in samples between
// statistically independent observations of the series:
//
//	g = 1 + 2 * sum_t C(t) * (1 - t/N)
//
// where C(t) is the normalized fluctuation autocorrelation function. The sum
// stops at the first lag beyond minCorrelationLag where C(t) drops to zero or
// below. A constant series has g = 1.
func StatisticalInefficiency(a []float64) float64 {
	n := len(a)
	if n < 2 {
		return 1
	}
	mean := stat.Mean(a, nil)
	d := make([]float64, n)
	for i, v := range a {
		d[i] = v - mean
	}
	variance := floats.Dot(d, d) / float64(n)
	if variance == 0 {
		return 1
	}

	g := 1.0
	for t := 1; t < n; t++ {
		c := floats.Dot(d[:n-t], d[t:]) / (float64(n-t) * variance)
		if c <= 0 && t > minCorrelationLag {
			break
		}
		g += 2 * c * (1 - float64(t)/float64(n))
	}
	if g < 1 {
		return 1
	}
	return g
}

// DetectEquilibration scans candidate equilibration origins t0 and returns
// the one maximizing the effective sample count of the remaining tail,
// together with that tail's statistical inefficiency g and the maximized
// effective count. This is the standard interpretation of equilibration
// detection for a series with unknown, possibly non-stationary, burn-in:
// discarding a transient can only be justified by the independent
// information it buys back.
//
// nskip optionally coarsens the origin grid; by default roughly 200 origins
// are examined.
func DetectEquilibration(a []float64, nskip ...int) (t0 int, g float64, neffMax float64) {
	n := len(a)
	if n < 3 {
		return 0, 1, float64(n)
	}
	if constant(a) {
		return 0, 1, float64(n)
	}

	skip := n / 200
	if len(nskip) > 0 && nskip[0] > 0 {
		skip = nskip[0]
	}
	if skip < 1 {
		skip = 1
	}

	g = 1
	neffMax = 0
	for t := 0; t < n-2; t += skip {
		gt := StatisticalInefficiency(a[t:])
		neff := float64(n-t) / gt
		if neff > neffMax {
			t0, g, neffMax = t, gt, neff
		}
	}
	return t0, g, neffMax
}

func constant(a []float64) bool {
	for _, v := range a[1:] {
		if v != a[0] {
			return false
		}
	}
	return true
}

// SubsampleIndices returns indices into an equilibrated series of length n,
// spaced by the statistical inefficiency g so that the picked samples are
// effectively independent. Samples closer than g to the previous pick are
// dropped.
func SubsampleIndices(n int, g float64) []int {
	if n <= 0 {
		return nil
	}
	if g < 1 {
		g = 1
	}
	var indices []int
	for k := 0; ; k++ {
		t := int(float64(k)*g + 0.5)
		if t >= n {
			break
		}
		if len(indices) == 0 || t > indices[len(indices)-1] {
			indices = append(indices, t)
		}
	}
	return indices
}
