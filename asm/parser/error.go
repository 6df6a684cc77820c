package parser

import (
	"fmt"
	"strings"

	"github.com/hexaflex/dcpu/translate"
	"github.com/pkg/errors"
)

var f = translate.From

// Error categories. Every *Error unwraps to one of these, or to the
// *Error raised inside an included file.
var (
	ErrOpcode    = errors.New(f("invalid opcode"))
	ErrValue     = errors.New(f("invalid value"))
	ErrCommand   = errors.New(f("invalid command"))
	ErrLabel     = errors.New(f("invalid label"))
	ErrLiteral   = errors.New(f("invalid literal"))
	ErrEOF       = errors.New(f("unexpected end of file"))
	ErrDelimiter = errors.New(f("missing delimiter"))
	ErrDuplicate = errors.New(f("duplicate definition"))
	ErrInclude   = errors.New(f("include failed"))
)

// Error defines a parse error with source context.
type Error struct {
	Pos     Position
	Err     error  // Category, or the error raised in an included file.
	Msg     string // Optional detail.
	Include string // Set when Err was raised in this included file.
}

// NewError creates a new, formatted error message with the given source context.
func NewError(pos Position, err error, format string, argv ...any) *Error {
	var msg string
	if len(format) > 0 {
		msg = f(format, argv...)
	}
	return &Error{
		Pos: pos,
		Err: err,
		Msg: msg,
	}
}

// WrapInclude annotates err, raised while processing the given
// included file, with the position of the include command.
func WrapInclude(pos Position, path string, err error) *Error {
	return &Error{
		Pos:     pos,
		Err:     err,
		Include: path,
	}
}

func (e *Error) Error() string {
	if len(e.Include) > 0 {
		return e.Err.Error() + f("\n  in included file %q at %s", e.Include, e.Pos)
	}

	var sb strings.Builder
	sb.WriteString(e.Pos.String())
	sb.WriteString(": ")
	if e.Err != nil {
		sb.WriteString(e.Err.Error())
	}
	if len(e.Msg) > 0 {
		fmt.Fprintf(&sb, ": %s", e.Msg)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
