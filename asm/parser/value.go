package parser

import (
	"fmt"

	"github.com/hexaflex/dcpu/arch"
)

// Value is a number or a reference to a label or constant.
type Value struct {
	Pos   Position
	Num   uint16
	Label string
}

// IsLabel returns true if the value must be resolved by name.
func (v Value) IsLabel() bool {
	return len(v.Label) > 0
}

func (v Value) String() string {
	if v.IsLabel() {
		return v.Label
	}
	return fmt.Sprintf("0x%04x", v.Num)
}

// Operand is an instruction operand as written in source.
// Mode is one of the arch address modes except ImmediateLiteral;
// whether a literal fits in the operand field is decided by Machine.
type Operand struct {
	Pos   Position
	Mode  arch.AddressMode
	Reg   arch.Register
	Stack arch.StackOp
	Value Value
}

// Extended returns true if the operand needs the next word.
func (o Operand) Extended() bool {
	return o.Machine(o.Value.Num).Extended()
}

// Machine returns the machine operand with v in place of the value.
// Labels always use the next word so that instruction sizes are known
// before labels are resolved.
func (o Operand) Machine(v uint16) arch.Operand {
	switch o.Mode {
	case arch.ImmediateRegister:
		return arch.Reg(o.Reg)
	case arch.IndirectRegister:
		return arch.Ind(o.Reg)
	case arch.IndirectRegisterOffset:
		return arch.IndOffset(o.Reg, v)
	case arch.IndirectConstant:
		return arch.IndConst(v)
	case arch.SpecialRegister:
		return arch.SReg(o.Reg)
	case arch.StackOperation:
		return arch.Stack(o.Stack)
	}

	if o.Value.IsLabel() {
		return arch.Const(v)
	}
	return arch.Lit(v)
}

func (o Operand) String() string {
	switch o.Mode {
	case arch.IndirectRegisterOffset:
		return fmt.Sprintf("[%s+%s]", o.Value, o.Reg)
	case arch.IndirectConstant:
		return fmt.Sprintf("[%s]", o.Value)
	case arch.ImmediateConstant, arch.ImmediateLiteral:
		return o.Value.String()
	}
	return o.Machine(0).String()
}
