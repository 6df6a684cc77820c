package arch

import (
	"fmt"

	"github.com/pkg/errors"
)

// AddressMode defines instruction operand address modes.
type AddressMode byte

// Known address modes.
const (
	ImmediateRegister      AddressMode = iota // x = A
	IndirectRegister                          // x = mem[A]
	IndirectRegisterOffset                    // x = mem[next + A]
	ImmediateLiteral                          // x = 0..31, packed into the operand field
	ImmediateConstant                         // x = next
	IndirectConstant                          // x = mem[next]
	SpecialRegister                           // x = SP, PC or EX
	StackOperation                            // x = POP, PEEK or PUSH
)

// Operand field values with a fixed meaning.
const (
	codeIndirect       = 0x08
	codeIndirectOffset = 0x10
	codeStack          = 0x18
	codeSP             = 0x1b
	codePC             = 0x1c
	codeEX             = 0x1d
	codeNextIndirect   = 0x1e
	codeNext           = 0x1f
	codeLiteral        = 0x20

	// MaxInline is the largest literal that fits in the operand field.
	MaxInline = 0x1f
)

// ErrOperand is returned when an operand has no encoding.
var ErrOperand = errors.New("operand can not be encoded")

// Operand describes a single instruction operand.
// Value holds the literal, the next word or the offset, depending on Mode.
type Operand struct {
	Mode  AddressMode
	Reg   Register
	Stack StackOp
	Value uint16
}

// Reg returns a register operand.
func Reg(r Register) Operand { return Operand{Mode: ImmediateRegister, Reg: r} }

// Ind returns a [register] operand.
func Ind(r Register) Operand { return Operand{Mode: IndirectRegister, Reg: r} }

// IndOffset returns a [next + register] operand.
func IndOffset(r Register, v uint16) Operand {
	return Operand{Mode: IndirectRegisterOffset, Reg: r, Value: v}
}

// Lit returns a literal operand. Small values are packed into the
// operand field, anything else uses the next word.
func Lit(v uint16) Operand {
	if v <= MaxInline {
		return Operand{Mode: ImmediateLiteral, Value: v}
	}
	return Const(v)
}

// Const returns a literal operand which always uses the next word.
func Const(v uint16) Operand { return Operand{Mode: ImmediateConstant, Value: v} }

// IndConst returns a [next] operand.
func IndConst(v uint16) Operand { return Operand{Mode: IndirectConstant, Value: v} }

// SReg returns a SP, PC or EX operand.
func SReg(r Register) Operand { return Operand{Mode: SpecialRegister, Reg: r} }

// Stack returns a POP, PEEK or PUSH operand.
func Stack(s StackOp) Operand { return Operand{Mode: StackOperation, Stack: s} }

// Extended returns true if the operand needs the next word.
func (o Operand) Extended() bool {
	switch o.Mode {
	case IndirectRegisterOffset, ImmediateConstant, IndirectConstant:
		return true
	}
	return false
}

// Code returns the 6-bit operand field for o.
func (o Operand) Code() (uint16, error) {
	switch o.Mode {
	case ImmediateRegister, IndirectRegister, IndirectRegisterOffset:
		if !o.Reg.General() {
			return 0, errors.Wrapf(ErrOperand, "register %s", o.Reg)
		}
		switch o.Mode {
		case IndirectRegister:
			return codeIndirect + uint16(o.Reg), nil
		case IndirectRegisterOffset:
			return codeIndirectOffset + uint16(o.Reg), nil
		}
		return uint16(o.Reg), nil

	case ImmediateLiteral:
		if o.Value > MaxInline {
			return 0, errors.Wrapf(ErrOperand, "inline literal 0x%04x", o.Value)
		}
		return codeLiteral + o.Value, nil

	case ImmediateConstant:
		return codeNext, nil

	case IndirectConstant:
		return codeNextIndirect, nil

	case SpecialRegister:
		switch o.Reg {
		case SP:
			return codeSP, nil
		case PC:
			return codePC, nil
		case EX:
			return codeEX, nil
		}
		return 0, errors.Wrapf(ErrOperand, "special register %s", o.Reg)

	case StackOperation:
		if o.Stack > PUSH {
			return 0, errors.Wrapf(ErrOperand, "stack operation %d", o.Stack)
		}
		return codeStack + uint16(o.Stack), nil
	}

	return 0, errors.Wrapf(ErrOperand, "address mode %d", o.Mode)
}

// codeExtended returns true if the operand field needs the next word.
func codeExtended(code uint16) bool {
	return (code >= codeIndirectOffset && code < codeStack) ||
		code == codeNextIndirect || code == codeNext
}

// decodeOperand builds the operand for the given field. next is the
// following word and is only used when codeExtended(code) is true.
func decodeOperand(code, next uint16) Operand {
	switch {
	case code < codeIndirect:
		return Reg(Register(code))
	case code < codeIndirectOffset:
		return Ind(Register(code - codeIndirect))
	case code < codeStack:
		return IndOffset(Register(code-codeIndirectOffset), next)
	case code < codeSP:
		return Stack(StackOp(code - codeStack))
	case code == codeSP:
		return SReg(SP)
	case code == codePC:
		return SReg(PC)
	case code == codeEX:
		return SReg(EX)
	case code == codeNextIndirect:
		return IndConst(next)
	case code == codeNext:
		return Const(next)
	}
	return Operand{Mode: ImmediateLiteral, Value: (code - codeLiteral) & MaxInline}
}

func (o Operand) String() string {
	switch o.Mode {
	case ImmediateRegister:
		return o.Reg.String()
	case IndirectRegister:
		return fmt.Sprintf("[%s]", o.Reg)
	case IndirectRegisterOffset:
		return fmt.Sprintf("[0x%04X+%s]", o.Value, o.Reg)
	case ImmediateLiteral, ImmediateConstant:
		return fmt.Sprintf("0x%04X", o.Value)
	case IndirectConstant:
		return fmt.Sprintf("[0x%04X]", o.Value)
	case SpecialRegister:
		return o.Reg.String()
	case StackOperation:
		return o.Stack.String()
	}
	return "?"
}
