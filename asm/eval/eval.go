// Package eval facilitates compile-time evaluation of integer expressions
// used by .define and .ldefine.
package eval

import (
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// maxSteps bounds the work a single expression may do.
const maxSteps = 1 << 16

// Env maps constant names to their values.
type Env map[string]uint16

// Evaluate evaluates expr with the constants in env predeclared.
// Expressions use Starlark syntax; the result must be an integer and
// is truncated to 16 bits, so negative values wrap.
func Evaluate(expr string, env Env) (uint16, error) {
	thread := starlark.Thread{Name: "eval"}
	thread.SetMaxExecutionSteps(maxSteps)

	opts := syntax.FileOptions{}
	pred := make(starlark.StringDict, len(env))
	for key, value := range env {
		pred[key] = starlark.MakeInt(int(value))
	}

	prog := "rc = " + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return 0, &Error{Expr: expr, Err: err}
	}

	rc, ok := dict["rc"].(starlark.Int)
	if !ok {
		return 0, &Error{Expr: expr, Err: ErrNotInteger}
	}

	value, ok := rc.Int64()
	if !ok {
		return 0, &Error{Expr: expr, Err: ErrRange}
	}

	return uint16(value), nil
}
