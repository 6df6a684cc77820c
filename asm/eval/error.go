package eval

import (
	"github.com/hexaflex/dcpu/translate"
	"github.com/pkg/errors"
)

var f = translate.From

var (
	ErrExpression = errors.New(f("invalid expression"))
	ErrNotInteger = errors.New(f("expression is not an integer"))
	ErrRange      = errors.New(f("expression out of range"))
)

// Error is returned when an expression can not be evaluated.
// It matches ErrExpression.
type Error struct {
	Expr string
	Err  error
}

func (e *Error) Error() string {
	return f("$(%s): %v", e.Expr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrExpression
}
