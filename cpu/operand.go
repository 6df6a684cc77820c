package cpu

import "github.com/hexaflex/dcpu/arch"

// location kinds.
const (
	inRegister = iota
	inMemory
	inLiteral
)

// location is a resolved operand: where it lives and the value it
// held when it was resolved.
type location struct {
	kind  int
	index uint16 // Register id or memory address.
	value uint16
}

// resolve computes the location of the operand and applies its stack
// side effects.
func (c *CPU) resolve(o arch.Operand) location {
	r := c.registers[:]

	switch o.Mode {
	case arch.ImmediateRegister, arch.SpecialRegister:
		return location{kind: inRegister, index: uint16(o.Reg), value: r[o.Reg]}
	case arch.IndirectRegister:
		return c.at(r[o.Reg])
	case arch.IndirectRegisterOffset:
		return c.at(o.Value + r[o.Reg])
	case arch.IndirectConstant:
		return c.at(o.Value)
	case arch.StackOperation:
		switch o.Stack {
		case arch.POP:
			sp := r[arch.SP]
			r[arch.SP]++
			return c.at(sp)
		case arch.PUSH:
			r[arch.SP]--
			return c.at(r[arch.SP])
		default:
			return c.at(r[arch.SP])
		}
	}

	return location{kind: inLiteral, value: o.Value}
}

func (c *CPU) at(addr uint16) location {
	return location{kind: inMemory, index: addr, value: c.memory[addr]}
}

// store writes v to the location. Stores to literals are ignored.
func (c *CPU) store(l location, v uint16) {
	switch l.kind {
	case inRegister:
		c.registers[l.index] = v
	case inMemory:
		c.SetMemory(l.index, v)
	}
}
