package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/hexaflex/dcpu/arch"
	"github.com/pkg/errors"
)

// AST holds the statements of a single source file, in source order.
type AST struct {
	File  string
	Nodes []Node
}

// Parse reads the given stream and parses it. The filename is used to
// provide source context.
func Parse(r io.Reader, filename string) (*AST, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filename)
	}
	return ParseBytes(data, filename)
}

// ParseBytes parses the given source. Parsing stops at the first error.
func ParseBytes(data []byte, filename string) (*AST, error) {
	ast := &AST{File: filename}
	var b astBuilder

	err := tokenize(data, filename, func(tt int, pos Position, value string) error {
		node, err := b.token(tt, pos, value)
		if node != nil {
			ast.Nodes = append(ast.Nodes, node)
		}
		return err
	})

	if err != nil {
		return nil, err
	}
	return ast, nil
}

// String returns a human readable listing of the statements.
func (a *AST) String() string {
	var sb strings.Builder
	for _, n := range a.Nodes {
		fmt.Fprintf(&sb, "%s %s\n", n.Position(), n)
	}
	return sb.String()
}

// term is a value token waiting to be interpreted.
type term struct {
	typ   int
	pos   Position
	value string
}

// operandState collects the tokens of the operand being read.
type operandState struct {
	pos      Position
	indirect bool
	terms    []term
}

// astBuilder turns the token stream into nodes.
type astBuilder struct {
	cmd     *Define // Command being read; Name holds the command name.
	args    []term
	instr   *Instruction
	data    *Data
	operand *operandState
}

// token consumes one token and returns a node when a statement is complete.
func (b *astBuilder) token(tt int, pos Position, value string) (Node, error) {
	switch tt {
	case tokCommandBegin:
		b.cmd = &Define{nodeBase: nodeBase{pos}, Name: strings.ToLower(value)}
		b.args = b.args[:0]

	case tokCommandEnd:
		cmd := b.cmd
		b.cmd = nil
		return b.command(cmd)

	case tokLabel, tokLocalLabel:
		if IsReserved(value) {
			return nil, NewError(pos, ErrLabel, "%q is a reserved name", value)
		}
		return &Label{nodeBase: nodeBase{pos}, Name: value, Local: tt == tokLocalLabel}, nil

	case tokInstructionBegin:
		if strings.EqualFold(value, "DAT") {
			b.data = &Data{nodeBase: nodeBase{pos}}
			return nil, nil
		}

		op, ok := arch.Lookup(value)
		if !ok {
			return nil, NewError(pos, ErrOpcode, "unrecognised opcode %q", value)
		}
		b.instr = &Instruction{nodeBase: nodeBase{pos}, Opcode: op}

	case tokInstructionEnd:
		return b.instruction()

	case tokOperandBegin:
		b.operand = &operandState{pos: pos}

	case tokIndirectBegin:
		b.operand.indirect = true

	case tokOperandEnd:
		o := b.operand
		b.operand = nil
		return nil, b.finishOperand(o)

	case tokPlus, tokIndirectEnd:

	case tokNumber, tokIdent, tokChar, tokString, tokExpression:
		t := term{typ: tt, pos: pos, value: value}
		if b.operand != nil {
			b.operand.terms = append(b.operand.terms, t)
		} else {
			b.args = append(b.args, t)
		}
	}

	return nil, nil
}

// command finishes a preprocessor command.
func (b *astBuilder) command(cmd *Define) (Node, error) {
	switch cmd.Name {
	case "define", "ldefine":
		if len(b.args) != 2 {
			return nil, NewError(cmd.Pos, ErrValue, ".%s expects a name and a value", cmd.Name)
		}

		name := b.args[0]
		if name.typ != tokIdent || IsReserved(name.value) {
			return nil, NewError(name.pos, ErrLabel, "%q can not be defined", name.value)
		}

		def := &Define{nodeBase: cmd.nodeBase, Name: name.value, Local: cmd.Name == "ldefine"}

		value := b.args[1]
		if value.typ == tokExpression {
			def.Expr = strings.TrimSpace(value.value)
			return def, nil
		}

		v, err := termValue(value)
		if err != nil {
			return nil, err
		}
		if v.IsLabel() {
			return nil, NewError(value.pos, ErrValue, "invalid second argument for definition, expected literal value")
		}

		def.Value = v
		return def, nil

	case "include":
		if len(b.args) != 1 || b.args[0].typ != tokString {
			return nil, NewError(cmd.Pos, ErrValue, ".include expects a quoted file name")
		}

		path, ok := unquote(b.args[0].value, '"')
		if !ok || len(path) == 0 {
			return nil, NewError(b.args[0].pos, ErrLiteral, "%s", b.args[0].value)
		}
		return &Include{nodeBase: cmd.nodeBase, Path: path}, nil
	}

	return nil, NewError(cmd.Pos, ErrCommand, ".%s", cmd.Name)
}

// instruction finishes the current instruction or DAT statement.
func (b *astBuilder) instruction() (Node, error) {
	if b.data != nil {
		data := b.data
		b.data = nil

		if len(data.Values) == 0 {
			return nil, NewError(data.Pos, ErrValue, "DAT expects at least one value")
		}
		return data, nil
	}

	instr := b.instr
	b.instr = nil

	argc := instr.Opcode.Argc()
	switch {
	case len(instr.Operands) < argc:
		return nil, NewError(instr.Pos, ErrDelimiter, "%s expects %d operands", instr.Opcode, argc)
	case len(instr.Operands) > argc:
		return nil, NewError(instr.Operands[argc].Pos, ErrValue, "%s expects %d operands", instr.Opcode, argc)
	}
	return instr, nil
}

// finishOperand interprets the collected operand terms.
func (b *astBuilder) finishOperand(o *operandState) error {
	if b.data != nil {
		return b.dataValue(o)
	}

	operand, err := makeOperand(o)
	if err != nil {
		return err
	}

	b.instr.Operands = append(b.instr.Operands, operand)
	return nil
}

// dataValue appends the values for a DAT operand.
func (b *astBuilder) dataValue(o *operandState) error {
	t := o.terms[0]
	if o.indirect {
		return NewError(o.pos, ErrValue, "DAT values can not be references")
	}

	if t.typ == tokString {
		words, ok := ParseString(t.value)
		if !ok {
			return NewError(t.pos, ErrLiteral, "%s", t.value)
		}
		for _, w := range words {
			b.data.Values = append(b.data.Values, Value{Pos: t.pos, Num: w})
		}
		return nil
	}

	v, err := termValue(t)
	if err != nil {
		return err
	}

	b.data.Values = append(b.data.Values, v)
	return nil
}

// makeOperand builds an instruction operand.
func makeOperand(o *operandState) (Operand, error) {
	out := Operand{Pos: o.pos}

	if !o.indirect {
		t := o.terms[0]
		if r := registerTerm(t); r > -1 {
			out.Mode = arch.ImmediateRegister
			out.Reg = arch.Register(r)
			return out, nil
		}

		if s, ok := specialTerm(t); ok {
			out.Mode = s.Mode
			out.Reg = s.Reg
			out.Stack = s.Stack
			return out, nil
		}

		v, err := termValue(t)
		out.Mode = arch.ImmediateConstant
		out.Value = v
		return out, err
	}

	for _, t := range o.terms {
		if _, ok := specialTerm(t); ok {
			return out, NewError(t.pos, ErrValue, "special register used as a reference")
		}
	}

	if len(o.terms) == 1 {
		t := o.terms[0]
		if r := registerTerm(t); r > -1 {
			out.Mode = arch.IndirectRegister
			out.Reg = arch.Register(r)
			return out, nil
		}

		v, err := termValue(t)
		out.Mode = arch.IndirectConstant
		out.Value = v
		return out, err
	}

	reg, value := o.terms[0], o.terms[1]
	if registerTerm(reg) == -1 {
		reg, value = value, reg
	}

	if registerTerm(reg) == -1 {
		return out, NewError(o.pos, ErrValue, "expected a register in offset reference")
	}
	if registerTerm(value) > -1 {
		return out, NewError(value.pos, ErrValue, "expected a literal or label in offset reference")
	}

	v, err := termValue(value)
	out.Mode = arch.IndirectRegisterOffset
	out.Reg = arch.Register(registerTerm(reg))
	out.Value = v
	return out, err
}

// termValue interprets t as a number or a label reference.
func termValue(t term) (Value, error) {
	switch t.typ {
	case tokNumber:
		n, ok := ParseNumber(t.value)
		if !ok {
			return Value{}, NewError(t.pos, ErrLiteral, "%s", t.value)
		}
		return Value{Pos: t.pos, Num: n}, nil

	case tokChar:
		n, ok := ParseChar(t.value)
		if !ok {
			return Value{}, NewError(t.pos, ErrLiteral, "%s", t.value)
		}
		return Value{Pos: t.pos, Num: n}, nil

	case tokIdent:
		if IsReserved(t.value) {
			return Value{}, NewError(t.pos, ErrValue, "unexpected register %s", t.value)
		}
		return Value{Pos: t.pos, Label: t.value}, nil
	}

	return Value{}, NewError(t.pos, ErrValue, "unexpected %s", t.value)
}

func registerTerm(t term) int {
	if t.typ != tokIdent {
		return -1
	}
	return arch.RegisterIndex(t.value)
}

func specialTerm(t term) (arch.Operand, bool) {
	if t.typ != tokIdent {
		return arch.Operand{}, false
	}
	return arch.Special(t.value)
}

// IsReserved returns true if name is a register or special operand
// keyword and can not be used as a label.
func IsReserved(name string) bool {
	if arch.IsRegister(name) {
		return true
	}
	_, ok := arch.Special(name)
	return ok
}
