package asm

import (
	"fmt"
	"strings"

	"github.com/hexaflex/dcpu/arch"
	"github.com/hexaflex/dcpu/asm/image"
	"github.com/hexaflex/dcpu/asm/parser"
	"github.com/hexaflex/dcpu/translate"
	"github.com/pkg/errors"
)

// ErrTooLarge is returned when the program does not fit in memory.
var ErrTooLarge = errors.New(translate.From("program does not fit in memory"))

// assembler holds the state of the second pass. It turns the unit tree
// into a program image.
type assembler struct {
	*builder
	img     *image.Image
	globals map[string]symbol // Global labels and constants.
}

// link merges the global symbols of all units, resolves every reference
// and emits the program.
func (b *builder) link() (*image.Image, error) {
	origin := b.asm.Origin
	size := b.units[0].length
	if int(origin)+size > 0x10000 {
		return nil, errors.Wrapf(ErrTooLarge, "%d words at 0x%04x", size, origin)
	}

	a := &assembler{
		builder: b,
		img:     &image.Image{Origin: origin, Words: make([]uint16, 0, size)},
		globals: make(map[string]symbol),
	}

	if err := b.walk(origin, a.mergeGlobals); err != nil {
		return nil, err
	}

	if err := b.walk(origin, a.emit); err != nil {
		return nil, err
	}

	return a.img, nil
}

// mergeGlobals adds global label and constant definitions to the
// program-wide table. The first definition of a name wins; any later
// one is an error.
func (a *assembler) mergeGlobals(u *unit, it *item, base uint16) error {
	var name string
	var sym symbol

	switch n := it.node.(type) {
	case *parser.Label:
		name = n.Name
		sym = symbol{value: base + uint16(it.offset), pos: n.Pos}
	case *parser.Define:
		name = n.Name
		sym = symbol{value: it.value, pos: n.Pos}
	default:
		return nil
	}

	if prev, ok := a.globals[name]; ok {
		return parser.NewError(sym.pos, parser.ErrDuplicate, "%q already defined at %s", name, prev.pos)
	}

	a.globals[name] = sym
	return nil
}

// lookup resolves a name as seen from the given scope of unit u:
// local labels first, then unit constants, then globals.
func (a *assembler) lookup(u *unit, scope int, base uint16, v parser.Value) (uint16, error) {
	if !v.IsLabel() {
		return v.Num, nil
	}

	if offset, ok := u.scopes[scope][v.Label]; ok {
		return base + uint16(offset), nil
	}

	if sym, ok := u.consts[v.Label]; ok {
		return sym.value, nil
	}

	if sym, ok := a.globals[v.Label]; ok {
		return sym.value, nil
	}

	return 0, parser.NewError(v.Pos, parser.ErrLabel, "undefined label %q", v.Label)
}

// emit encodes a single instruction or data statement.
func (a *assembler) emit(u *unit, it *item, base uint16) error {
	var words []uint16
	var text string

	switch n := it.node.(type) {
	case *parser.Instruction:
		instr, err := a.resolve(u, it, base, n)
		if err != nil {
			return err
		}

		words, err = arch.Encode(instr)
		if err != nil {
			return parser.NewError(n.Pos, parser.ErrValue, "%v", err)
		}
		text = instr.String()

	case *parser.Data:
		values := make([]string, len(n.Values))
		for i, v := range n.Values {
			w, err := a.lookup(u, it.scope, base, v)
			if err != nil {
				return err
			}
			words = append(words, w)
			values[i] = fmt.Sprintf("0x%04x", w)
		}
		text = "DAT " + strings.Join(values, ", ")

	default:
		return nil
	}

	a.img.Listing = append(a.img.Listing, image.Line{
		Address: base + uint16(it.offset),
		Size:    len(words),
		Pos:     it.node.Position(),
		Text:    text,
	})

	a.img.Words = append(a.img.Words, words...)
	return nil
}

// resolve builds the machine instruction for n with all references resolved.
func (a *assembler) resolve(u *unit, it *item, base uint16, n *parser.Instruction) (arch.Instruction, error) {
	out := arch.Instruction{Opcode: n.Opcode}

	for i, o := range n.Operands {
		v, err := a.lookup(u, it.scope, base, o.Value)
		if err != nil {
			return out, err
		}

		switch i {
		case 0:
			out.A = o.Machine(v)
		case 1:
			out.B = o.Machine(v)
		}
	}

	return out, nil
}
