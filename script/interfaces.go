// Package script evaluates the ${...} expressions that may appear in segment
// instruction lines, against the protocol's variables and per-segment derived
// values.
package script

import "context"

// Value is the result of an expression evaluation.
type Value interface {

	// Value returns the Go value for this value as an any
	Value() any

	// String returns the string representation of this value
	String() string
}

// Script is a compiled expression that can be evaluated.
type Script interface {
	Evaluate(ctx context.Context, globals map[string]any) (Value, error)
}

// Compiler compiles expression source code into a Script.
type Compiler interface {
	Compile(ctx context.Context, code string) (Script, error)
}
