package arch

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrTruncated is returned by Decode when the next words of an
// instruction are missing.
var ErrTruncated = errors.New("truncated instruction")

// Instruction is a single decoded instruction. Non-basic instructions
// only use A.
type Instruction struct {
	Opcode Opcode
	A      Operand
	B      Operand
}

// Size returns the number of words the instruction occupies.
func (i Instruction) Size() int {
	n := 1
	if i.A.Extended() {
		n++
	}
	if !i.Opcode.Extended() && i.B.Extended() {
		n++
	}
	return n
}

// Encode returns the words for i. Next words follow the instruction
// word, operand A first.
func Encode(i Instruction) ([]uint16, error) {
	a, err := i.A.Code()
	if err != nil {
		return nil, errors.Wrapf(err, "%s operand a", i.Opcode)
	}

	out := make([]uint16, 1, 3)

	if i.Opcode.Extended() {
		out[0] = uint16(i.Opcode)&0x3f0 | a<<10
		if i.A.Extended() {
			out = append(out, i.A.Value)
		}
		return out, nil
	}

	b, err := i.B.Code()
	if err != nil {
		return nil, errors.Wrapf(err, "%s operand b", i.Opcode)
	}

	out[0] = uint16(i.Opcode)&0xf | a<<4 | b<<10
	if i.A.Extended() {
		out = append(out, i.A.Value)
	}
	if i.B.Extended() {
		out = append(out, i.B.Value)
	}
	return out, nil
}

// Decode reads one instruction from the start of words and returns it
// together with the number of words it occupies.
func Decode(words []uint16) (Instruction, int, error) {
	if len(words) == 0 {
		return Instruction{}, 0, ErrTruncated
	}

	var instr Instruction
	var ca, cb uint16

	w := words[0]
	if w&0xf == 0 {
		instr.Opcode = Opcode(w & 0x3f0)
		ca = w >> 10
	} else {
		instr.Opcode = Opcode(w & 0xf)
		ca = (w >> 4) & 0x3f
		cb = w >> 10
	}

	n := 1
	next := func(code uint16) (uint16, error) {
		if !codeExtended(code) {
			return 0, nil
		}
		if n >= len(words) {
			return 0, ErrTruncated
		}
		n++
		return words[n-1], nil
	}

	v, err := next(ca)
	if err != nil {
		return Instruction{}, 0, err
	}
	instr.A = decodeOperand(ca, v)

	if !instr.Opcode.Extended() {
		v, err = next(cb)
		if err != nil {
			return Instruction{}, 0, err
		}
		instr.B = decodeOperand(cb, v)
	}

	return instr, n, nil
}

// Length returns the size in words of the instruction starting with w.
func Length(w uint16) int {
	n := 1
	if w&0xf == 0 {
		if codeExtended(w >> 10) {
			n++
		}
		return n
	}
	if codeExtended((w >> 4) & 0x3f) {
		n++
	}
	if codeExtended(w >> 10) {
		n++
	}
	return n
}

func (i Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(i.Opcode.String())
	sb.WriteByte(' ')
	sb.WriteString(i.A.String())
	if !i.Opcode.Extended() {
		sb.WriteString(", ")
		sb.WriteString(i.B.String())
	}
	return sb.String()
}
