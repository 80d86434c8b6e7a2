// Package drift builds stream profiles for the trajectory engine.
//
// A profile is the function f in the along-stream drift s0*f(x2).
// Profiles can come from presets or from a text expression in x, for
// example "1 - pow(x/10, 2)".
package drift

import (
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/unklstewy/shipnav/pkg/navigation"
)

// functions available to expressions besides the expr builtins.
var functions = map[string]any{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"atan2": math.Atan2,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"exp":   math.Exp,
	"log":   math.Log,
	"log10": math.Log10,
	"sqrt":  math.Sqrt,
	"pow":   math.Pow,
	"hypot": math.Hypot,
	"pi":    math.Pi,
	"e":     math.E,
}

// Expression is a compiled drift profile.
// It is safe for concurrent use.
type Expression struct {
	source  string
	program *vm.Program
}

// Compile parses and type-checks src as a function of x.
// The result must be numeric; compile fails otherwise.
func Compile(src string) (*Expression, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("drift expression is empty")
	}

	program, err := expr.Compile(src, expr.Env(env(0)))
	if err != nil {
		return nil, fmt.Errorf("failed to compile drift expression %q: %w", src, err)
	}

	e := &Expression{source: src, program: program}

	// Probe once so that non-numeric expressions fail here instead of mid-run.
	out, err := expr.Run(program, env(0))
	if err == nil {
		if _, ok := toFloat(out); !ok {
			return nil, fmt.Errorf("drift expression %q yields %T, not a number", src, out)
		}
	}

	return e, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Expression {
	e, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Source returns the expression text.
func (e *Expression) Source() string {
	return e.source
}

// Eval evaluates the expression at x.
func (e *Expression) Eval(x float64) (float64, error) {
	out, err := expr.Run(e.program, env(x))
	if err != nil {
		return math.NaN(), fmt.Errorf("failed to evaluate %q at x=%g: %w", e.source, x, err)
	}

	v, ok := toFloat(out)
	if !ok {
		return math.NaN(), fmt.Errorf("drift expression %q yields %T at x=%g", e.source, out, x)
	}
	return v, nil
}

// Func adapts the expression to the engine's drift signature.
// Evaluation errors become NaN, which the engine reports as an undefined drift.
func (e *Expression) Func() navigation.DriftFunc {
	return func(x2 float64) float64 {
		v, err := e.Eval(x2)
		if err != nil {
			return math.NaN()
		}
		return v
	}
}

func env(x float64) map[string]any {
	m := make(map[string]any, len(functions)+1)
	for k, v := range functions {
		m[k] = v
	}
	m["x"] = x
	return m
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
