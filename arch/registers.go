package arch

import "strings"

// Register identifies a CPU register.
type Register byte

// Known registers. Only A through J can be selected by an operand;
// the remaining ones are reached through special operands or dedicated
// instructions.
const (
	A Register = iota
	B
	C
	X
	Y
	Z
	I
	J
	SP
	PC
	EX
	IA
)

// RegisterCount is the number of registers in the register file.
const RegisterCount = 12

// IsRegister returns true if the given name represents a general purpose register.
func IsRegister(name string) bool {
	return RegisterIndex(name) > -1
}

// RegisterIndex returns the index for the given general purpose register.
// Returns -1 if the name is not recognized.
func RegisterIndex(name string) int {
	if len(name) != 1 {
		return -1
	}

	switch strings.ToUpper(name) {
	case "A":
		return int(A)
	case "B":
		return int(B)
	case "C":
		return int(C)
	case "X":
		return int(X)
	case "Y":
		return int(Y)
	case "Z":
		return int(Z)
	case "I":
		return int(I)
	case "J":
		return int(J)
	}
	return -1
}

// General returns true if r can be encoded in an operand.
func (r Register) General() bool {
	return r <= J
}

func (r Register) String() string {
	switch r {
	case A:
		return "A"
	case B:
		return "B"
	case C:
		return "C"
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	case I:
		return "I"
	case J:
		return "J"
	case SP:
		return "SP"
	case PC:
		return "PC"
	case EX:
		return "EX"
	case IA:
		return "IA"
	}
	return ""
}

// StackOp identifies one of the stack operands.
type StackOp byte

// Known stack operations.
const (
	POP  StackOp = iota // [SP++]
	PEEK                // [SP]
	PUSH                // [--SP]
)

func (s StackOp) String() string {
	switch s {
	case POP:
		return "POP"
	case PEEK:
		return "PEEK"
	case PUSH:
		return "PUSH"
	}
	return ""
}

// Special looks up a special operand keyword: a stack operation or one
// of the SP, PC and EX registers. O is accepted as an older name for EX.
// The returned mode is StackOperation or SpecialRegister.
func Special(name string) (Operand, bool) {
	switch strings.ToUpper(name) {
	case "POP":
		return Stack(POP), true
	case "PEEK":
		return Stack(PEEK), true
	case "PUSH":
		return Stack(PUSH), true
	case "SP":
		return SReg(SP), true
	case "PC":
		return SReg(PC), true
	case "EX", "O":
		return SReg(EX), true
	}
	return Operand{}, false
}
