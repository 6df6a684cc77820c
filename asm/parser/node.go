package parser

import (
	"fmt"
	"strings"

	"github.com/hexaflex/dcpu/arch"
)

// Node represents a top-level statement in a source file.
type Node interface {
	Position() Position
	String() string
}

// nodeBase is embedded by concrete node types and ensures
// they qualify as a Node interface.
type nodeBase struct {
	Pos Position
}

func (n *nodeBase) Position() Position {
	return n.Pos
}

// Label defines a label at the current address. Local labels are
// only visible up to the next global label.
type Label struct {
	nodeBase
	Name  string
	Local bool
}

func (n *Label) String() string {
	if n.Local {
		return "::" + n.Name
	}
	return ":" + n.Name
}

// Define is a .define or .ldefine command. Either Value holds the
// literal, or Expr holds the text of a $(...) expression.
type Define struct {
	nodeBase
	Name  string
	Local bool
	Value Value
	Expr  string
}

func (n *Define) String() string {
	cmd := ".define"
	if n.Local {
		cmd = ".ldefine"
	}
	if len(n.Expr) > 0 {
		return fmt.Sprintf("%s %s $(%s)", cmd, n.Name, n.Expr)
	}
	return fmt.Sprintf("%s %s %s", cmd, n.Name, n.Value)
}

// Include is an .include command.
type Include struct {
	nodeBase
	Path string
}

func (n *Include) String() string {
	return fmt.Sprintf(".include %q", n.Path)
}

// Instruction is a single machine instruction with unresolved operands.
type Instruction struct {
	nodeBase
	Opcode   arch.Opcode
	Operands []Operand
}

// Size returns the number of words the instruction assembles to.
func (n *Instruction) Size() int {
	size := 1
	for _, o := range n.Operands {
		if o.Extended() {
			size++
		}
	}
	return size
}

func (n *Instruction) String() string {
	args := make([]string, len(n.Operands))
	for i, o := range n.Operands {
		args[i] = o.String()
	}
	return n.Opcode.String() + " " + strings.Join(args, ", ")
}

// Data is a DAT statement. Strings have already been expanded into
// one value per character.
type Data struct {
	nodeBase
	Values []Value
}

// Size returns the number of words the data occupies.
func (n *Data) Size() int {
	return len(n.Values)
}

func (n *Data) String() string {
	args := make([]string, len(n.Values))
	for i, v := range n.Values {
		args[i] = v.String()
	}
	return "DAT " + strings.Join(args, ", ")
}
