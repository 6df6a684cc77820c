package cpu

import (
	"fmt"

	"github.com/hexaflex/dcpu/arch"
)

// Instruction defines decoded instruction data.
type Instruction struct {
	arch.Instruction
	PC   uint16 // Instruction address.
	Size int    // Size in words, next words included.
}

// decode decodes the instruction at the given address. Next words wrap
// around the end of memory.
func (i *Instruction) decode(mem *[MemorySize]uint16, pc uint16) {
	var words [3]uint16

	n := arch.Length(mem[pc])
	for j := 0; j < n; j++ {
		words[j] = mem[pc+uint16(j)]
	}

	// Length guarantees the words Decode asks for.
	i.Instruction, i.Size, _ = arch.Decode(words[:n])
	i.PC = pc
}

func (i *Instruction) String() string {
	return fmt.Sprintf("%04x: %s", i.PC, i.Instruction)
}

// conditional returns true if the given word is an IFx instruction.
func conditional(w uint16) bool {
	return arch.Opcode(w & 0xf).Conditional()
}
