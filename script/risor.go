package script

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"
)

// RisorEngine compiles and evaluates expressions using Risor.
type RisorEngine struct {
	globals map[string]any
}

// NewRisorEngine returns an engine whose expressions always see the given
// globals, in addition to any supplied at evaluation time.
func NewRisorEngine(globals map[string]any) *RisorEngine {
	if globals == nil {
		globals = map[string]any{}
	}
	return &RisorEngine{globals: globals}
}

// Compile implements Compiler.
func (e *RisorEngine) Compile(ctx context.Context, code string) (Script, error) {
	ast, err := parser.Parse(ctx, code)
	if err != nil {
		return nil, err
	}
	var names []string
	for name := range e.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	compiled, err := compiler.Compile(ast, compiler.WithGlobalNames(names))
	if err != nil {
		return nil, err
	}
	return &risorScript{engine: e, code: compiled}, nil
}

type risorScript struct {
	engine *RisorEngine
	code   *compiler.Code
}

func (s *risorScript) Evaluate(ctx context.Context, globals map[string]any) (Value, error) {
	combined := make(map[string]any, len(s.engine.globals)+len(globals))
	for name, value := range s.engine.globals {
		combined[name] = value
	}
	for name, value := range globals {
		combined[name] = value
	}
	obj, err := risor.EvalCode(ctx, s.code, risor.WithGlobals(combined))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression: %w", err)
	}
	return &risorValue{obj: obj}, nil
}

type risorValue struct {
	obj object.Object
}

func (v *risorValue) Value() any {
	switch o := v.obj.(type) {
	case *object.String:
		return o.Value()
	case *object.Int:
		return o.Value()
	case *object.Float:
		return o.Value()
	case *object.Bool:
		return o.Value()
	case *object.List:
		items := make([]any, 0, len(o.Value()))
		for _, item := range o.Value() {
			items = append(items, (&risorValue{obj: item}).Value())
		}
		return items
	case *object.Map:
		m := make(map[string]any, len(o.Value()))
		for key, value := range o.Value() {
			m[key] = (&risorValue{obj: value}).Value()
		}
		return m
	default:
		return o.Inspect()
	}
}

func (v *risorValue) String() string {
	switch o := v.obj.(type) {
	case *object.String:
		return o.Value()
	case *object.Int:
		return strconv.FormatInt(o.Value(), 10)
	case *object.Float:
		return strconv.FormatFloat(o.Value(), 'g', -1, 64)
	default:
		return o.Inspect()
	}
}
