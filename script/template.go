package script

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\${([^}]+)}`)

// Template is a string with embedded ${...} expressions, compiled once and
// evaluated against varying globals.
type Template struct {
	raw   string
	parts []string
	codes []Script
}

// NewTemplate compiles every ${...} expression in raw.
func NewTemplate(engine Compiler, raw string) (*Template, error) {
	if strings.Count(raw, "${") > strings.Count(raw, "}") {
		return nil, fmt.Errorf("unclosed template expression in string: %q", raw)
	}

	matches := exprPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return &Template{raw: raw}, nil
	}

	var parts []string
	var codes []Script
	lastEnd := 0
	for _, match := range matches {
		if match[0] > lastEnd {
			parts = append(parts, raw[lastEnd:match[0]])
		}
		expr := raw[match[2]:match[3]]
		code, err := engine.Compile(context.Background(), expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile template expression %q: %w", expr, err)
		}
		codes = append(codes, code)
		parts = append(parts, "") // placeholder for the evaluated result
		lastEnd = match[1]
	}
	if lastEnd < len(raw) {
		parts = append(parts, raw[lastEnd:])
	}
	return &Template{raw: raw, parts: parts, codes: codes}, nil
}

// Eval evaluates the template's expressions against globals and returns the
// assembled string.
func (t *Template) Eval(ctx context.Context, globals map[string]any) (string, error) {
	if len(t.codes) == 0 {
		return t.raw, nil
	}
	parts := make([]string, len(t.parts))
	copy(parts, t.parts)
	next := 0
	for _, code := range t.codes {
		result, err := code.Evaluate(ctx, globals)
		if err != nil {
			return "", fmt.Errorf("failed to evaluate template expression: %w", err)
		}
		for next < len(parts) && parts[next] != "" {
			next++
		}
		if next < len(parts) {
			parts[next] = result.String()
			next++
		}
	}
	return strings.Join(parts, ""), nil
}

// EvalString is a convenience for one-off template strings.
func EvalString(ctx context.Context, engine Compiler, raw string, globals map[string]any) (string, error) {
	t, err := NewTemplate(engine, raw)
	if err != nil {
		return "", err
	}
	return t.Eval(ctx, globals)
}
