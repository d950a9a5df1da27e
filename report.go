package mdrun

import (
	"fmt"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/mdrun/trajstat"
)

// SegmentReport collects everything learned about one executed segment.
type SegmentReport struct {
	SegmentID  string
	Iterations int
	Converged  bool
	Properties map[string]*trajstat.Result
}

// RunReport is the outcome of one full run.
type RunReport struct {
	RunDir   string
	Segments []*SegmentReport
}

// timeBucket classifies a time span given in fs into the display unit used
// for convergence and autocorrelation times.
func timeBucket(span float64) (unit string, divisor float64) {
	switch {
	case span >= 4e9:
		return "ms", 1e9
	case span >= 4e6:
		return "ns", 1e6
	case span >= 4e3:
		return "ps", 1e3
	default:
		return "fs", 1
	}
}

// FormatSegmentReport renders one segment's per-property table in the layout
// used for run summaries.
func FormatSegmentReport(r *SegmentReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis of segment %s\n", r.SegmentID)
	b.WriteString(
		"                                     Std Error  Time to\n" +
			"       Property           Value       of mean   convergence     tau    inefficiency\n" +
			"  --------------------   ---------  ---------   -----------  --------  ------------\n")

	names := make([]string, 0, len(r.Properties))
	for name := range r.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fewNeff := false
	shortProduction := false
	for _, name := range names {
		res := r.Properties[name]
		warn := " "
		if res.FewEffectiveSamples {
			warn = "*"
			fewNeff = true
		}
		acfWarn := " "
		if res.ShortProduction {
			acfWarn = "^"
			shortProduction = true
		}
		convUnit, convDiv := timeBucket(res.EquilibrationTime)
		tauUnit, tauDiv := timeBucket(res.AutocorrTime)
		fmt.Fprintf(&b, "%23s = %9.3f ± %7.3f%s %8.2f %s %8.1f %s%s %9.1f\n",
			name, res.Mean, res.StdErr, warn,
			res.EquilibrationTime/convDiv, convUnit,
			res.AutocorrTime/tauDiv, tauUnit, acfWarn,
			res.Inefficiency)
	}
	if fewNeff {
		b.WriteString("  * this property has less than 100 independent samples, so may not be accurate.\n")
	}
	if shortProduction {
		b.WriteString("  ^ there are not enough samples after equilibration to estimate the ACF.\n")
	}
	return b.String()
}

// FormatReport renders the whole run report.
func FormatReport(r *RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run directory: %s\n", r.RunDir)
	for _, seg := range r.Segments {
		if len(seg.Properties) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(FormatSegmentReport(seg))
	}
	return b.String()
}
