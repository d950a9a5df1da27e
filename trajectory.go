package mdrun

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/mdrun/trajstat"
)

// Trajectory holds the property streams sampled over one executed batch. The
// first column is the step count and the second the sample time; every
// remaining column is a property stream. Sample spacing is derived from the
// first two time values and assumed constant afterwards.
type Trajectory struct {
	Properties []string
	Spacing    float64
	columns    map[string][]float64
}

// ParseTrajectory parses the engine's trajectory text format: lines starting
// with '!' are comments, the first remaining row names the columns, and each
// following row is one whitespace-separated sample.
func ParseTrajectory(content string) (*Trajectory, error) {
	var header []string
	var rows [][]float64
	for lineno, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		fields := strings.Fields(line)
		if header == nil {
			if len(fields) < 3 {
				return nil, fmt.Errorf("trajectory header needs step, time and at least one property, got %q", line)
			}
			header = fields
			continue
		}
		if len(fields) != len(header) {
			return nil, fmt.Errorf("trajectory row %d has %d fields, header has %d", lineno+1, len(fields), len(header))
		}
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("trajectory row %d: bad value %q: %w", lineno+1, f, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if header == nil {
		return nil, fmt.Errorf("trajectory is empty")
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("trajectory needs at least 2 samples, has %d", len(rows))
	}

	columns := make(map[string][]float64, len(header))
	for i, name := range header {
		col := make([]float64, len(rows))
		for j, row := range rows {
			col[j] = row[i]
		}
		columns[name] = col
	}

	timeCol := columns[header[1]]
	spacing := timeCol[1] - timeCol[0]
	if spacing <= 0 {
		return nil, fmt.Errorf("trajectory sample spacing must be positive, got %g", spacing)
	}

	return &Trajectory{
		Properties: header[2:],
		Spacing:    spacing,
		columns:    columns,
	}, nil
}

// Len returns the number of samples per property.
func (t *Trajectory) Len() int {
	return len(t.columns[t.Properties[0]])
}

// Series returns the named property stream, or nil if it does not exist.
func (t *Trajectory) Series(name string) *trajstat.Series {
	values, ok := t.columns[name]
	if !ok {
		return nil
	}
	return &trajstat.Series{Values: values, Spacing: t.Spacing}
}
