package cpu

import (
	"github.com/hexaflex/dcpu/translate"
	"github.com/pkg/errors"
)

// ErrProgramSize is returned when a program does not fit in memory at
// the requested offset.
var ErrProgramSize = errors.New(translate.From("program does not fit in memory"))
