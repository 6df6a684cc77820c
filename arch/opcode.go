// Package arch defines the system's instruction set along with
// some related helper functions.
package arch

import "strings"

// Opcode identifies an instruction. Basic opcodes occupy the low 4 bits
// of an instruction word. Non-basic opcodes have those bits cleared and
// carry their number in bits 4-9, which is the value stored here.
type Opcode uint16

// Basic opcodes.
const (
	SET Opcode = 0x1
	ADD Opcode = 0x2
	SUB Opcode = 0x3
	MUL Opcode = 0x4
	DIV Opcode = 0x5
	MOD Opcode = 0x6
	SHL Opcode = 0x7
	SHR Opcode = 0x8
	AND Opcode = 0x9
	BOR Opcode = 0xa
	XOR Opcode = 0xb
	IFE Opcode = 0xc
	IFN Opcode = 0xd
	IFG Opcode = 0xe
	IFB Opcode = 0xf
)

// Non-basic opcodes.
const (
	JSR Opcode = 0x01 << 4
	HCF Opcode = 0x07 << 4
	INT Opcode = 0x08 << 4
	IAG Opcode = 0x09 << 4
	IAS Opcode = 0x0a << 4
	IAP Opcode = 0x0b << 4
	IAQ Opcode = 0x0c << 4
	HWN Opcode = 0x10 << 4
	HWQ Opcode = 0x11 << 4
	HWI Opcode = 0x12 << 4
)

var opcodeNames = map[Opcode]string{
	SET: "SET",
	ADD: "ADD",
	SUB: "SUB",
	MUL: "MUL",
	DIV: "DIV",
	MOD: "MOD",
	SHL: "SHL",
	SHR: "SHR",
	AND: "AND",
	BOR: "BOR",
	XOR: "XOR",
	IFE: "IFE",
	IFN: "IFN",
	IFG: "IFG",
	IFB: "IFB",
	JSR: "JSR",
	HCF: "HCF",
	INT: "INT",
	IAG: "IAG",
	IAS: "IAS",
	IAP: "IAP",
	IAQ: "IAQ",
	HWN: "HWN",
	HWQ: "HWQ",
	HWI: "HWI",
}

// Lookup returns the opcode for the given instruction name.
// Returns false if the name is not recognized.
func Lookup(name string) (Opcode, bool) {
	name = strings.ToUpper(name)
	for op, n := range opcodeNames {
		if n == name {
			return op, true
		}
	}
	return 0, false
}

// Extended returns true for non-basic opcodes, which take a single operand.
func (op Opcode) Extended() bool {
	return op&0xf == 0
}

// Conditional returns true for the IFx family.
func (op Opcode) Conditional() bool {
	return op >= IFE && op <= IFB
}

// Known returns true if op is an assigned opcode.
func (op Opcode) Known() bool {
	_, ok := opcodeNames[op]
	return ok
}

// Argc returns the number of operands for the opcode.
func (op Opcode) Argc() int {
	if op.Extended() {
		return 1
	}
	return 2
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "???"
}
