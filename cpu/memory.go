package cpu

import (
	"github.com/hexaflex/dcpu/arch"
	"github.com/pkg/errors"
)

// MemorySize is the number of words in the address space.
const MemorySize = 0x10000

// MemoryFunc is called with the address and new value of every memory store.
type MemoryFunc func(addr, value uint16)

// Memory returns the word at the given address.
func (c *CPU) Memory(addr uint16) uint16 {
	return c.memory[addr]
}

// SetMemory sets the word at the given address.
func (c *CPU) SetMemory(addr, value uint16) {
	c.memory[addr] = value
	c.onMemory(addr, value)
}

// Register returns the value of the given register.
func (c *CPU) Register(r arch.Register) uint16 {
	return c.registers[r]
}

// SetRegister sets the value of the given register.
func (c *CPU) SetRegister(r arch.Register, value uint16) {
	c.registers[r] = value
}

// LoadProgram copies the program into memory, starting at offset.
func (c *CPU) LoadProgram(program []uint16, offset uint16) error {
	if int(offset)+len(program) > MemorySize {
		return errors.Wrapf(ErrProgramSize, "%d words at 0x%04x", len(program), offset)
	}

	for i, w := range program {
		c.SetMemory(offset+uint16(i), w)
	}
	return nil
}

// LoadBytes copies a big-endian program into memory, starting at offset.
// Every two bytes form one word. A trailing odd byte becomes the high
// byte of the last word.
func (c *CPU) LoadBytes(program []byte, offset uint16) error {
	words := (len(program) + 1) / 2
	if int(offset)+words > MemorySize {
		return errors.Wrapf(ErrProgramSize, "%d bytes at 0x%04x", len(program), offset)
	}

	for i := 0; i < words; i++ {
		w := uint16(program[i*2]) << 8
		if i*2+1 < len(program) {
			w |= uint16(program[i*2+1])
		}
		c.SetMemory(offset+uint16(i), w)
	}
	return nil
}

// push pushes the given value onto the stack and updates SP.
func (c *CPU) push(value uint16) {
	c.registers[arch.SP]--
	c.SetMemory(c.registers[arch.SP], value)
}

// burn flips a random bit in a random memory word.
func (c *CPU) burn() {
	addr := uint16(c.rng.Intn(MemorySize))
	bit := uint16(1) << c.rng.Intn(16)
	c.SetMemory(addr, c.memory[addr]^bit)
}
