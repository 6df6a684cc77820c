package parser

import (
	"runtime"
	"sort"
)

// Known token types.
const (
	tokCommandBegin = 1 + iota
	tokCommandEnd
	tokLabel
	tokLocalLabel
	tokInstructionBegin
	tokInstructionEnd
	tokOperandBegin
	tokOperandEnd
	tokIndirectBegin
	tokIndirectEnd
	tokPlus
	tokNumber
	tokIdent
	tokChar
	tokString
	tokExpression
)

// tokenFunc is called whenever a new token is read from source.
type tokenFunc func(typ int, pos Position, value string) error

// tokenizer defines tokenizer state. start and end are byte offsets
// delimiting the token currently being read.
type tokenizer struct {
	lines []int // Offsets at which each line starts.
	data  []byte
	file  string
	tf    tokenFunc
	start int
	end   int
}

// tokenize turns the given source into a flat stream of tokens. Each
// token is passed into the given tokenFunc as it is read. The filename
// provides source context for each token.
func tokenize(data []byte, filename string, tf tokenFunc) (err error) {
	t := tokenizer{
		lines: []int{0},
		data:  data,
		file:  filename,
		tf:    tf,
	}

	for i, c := range data {
		if c == '\n' {
			t.lines = append(t.lines, i+1)
		}
	}

	// The tokenizer breaks out of its loop through the use of a panic,
	// We need to catch it here and convert it to a proper error message.
	defer func() {
		x := recover()
		if x == nil {
			return
		}

		if _, ok := x.(runtime.Error); ok {
			panic(x)
		}

		err = x.(error)
	}()

	t.readDocument()
	return nil
}

// readDocument reads a source file.
func (t *tokenizer) readDocument() {
	for {
		t.readSpace()
		if t.eof() {
			return
		}

		switch {
		case t.readComment():
		case t.readCommand():
		case t.readLabel():
		case t.readInstruction():
		default:
			t.error(ErrOpcode, "unexpected %q; expected .command, :label or opcode", t.peek())
		}
	}
}

// readCommand reads a preprocessor command and its arguments.
func (t *tokenizer) readCommand() bool {
	sigil := t.end
	if !t.readChar('.') {
		return false
	}

	t.ignore()
	if !t.readName() {
		t.error(ErrCommand, "expected command name")
	}

	t.emitFrom(tokCommandBegin, sigil)

	for t.readInlineSpace() && !t.atLineEnd() {
		switch {
		case t.readExpression():
		case t.readValue():
		default:
			t.error(ErrValue, "unexpected %q; expected a value", t.peek())
		}
	}

	t.emit(tokCommandEnd)
	return true
}

// readLabel reads a global or local label definition.
func (t *tokenizer) readLabel() bool {
	sigil := t.end
	if !t.readChar(':') {
		return false
	}

	typ := tokLabel
	if t.readChar(':') {
		typ = tokLocalLabel
	}

	t.ignore()
	if !t.readName() {
		t.error(ErrLabel, "label identifier expected")
	}

	t.emitFrom(typ, sigil)
	return true
}

// readInstruction reads an opcode and its operands.
func (t *tokenizer) readInstruction() bool {
	if !t.readName() {
		return false
	}

	t.emit(tokInstructionBegin)

	if t.readInlineSpace() && !t.atLineEnd() {
		t.readOperands()
	}

	t.emit(tokInstructionEnd)
	return true
}

// readOperands reads a comma separated operand list.
func (t *tokenizer) readOperands() {
	for {
		t.readOperand()
		t.readInlineSpace()

		if !t.readChar(',') {
			break
		}

		t.ignore()
		t.readInlineSpace()

		if t.eof() {
			t.error(ErrEOF, "")
		}
		if t.atLineEnd() {
			t.error(ErrValue, "expected a value after ','")
		}
	}
}

// readOperand reads a single instruction operand.
func (t *tokenizer) readOperand() {
	t.emit(tokOperandBegin)

	if !t.readChar('[') {
		t.readTerm()
		t.emit(tokOperandEnd)
		return
	}

	t.emit(tokIndirectBegin)
	t.readInlineSpace()
	t.readTerm()
	t.readInlineSpace()

	if t.readChar('+') {
		t.emit(tokPlus)
		t.readInlineSpace()
		t.readTerm()
		t.readInlineSpace()
	}

	if !t.readChar(']') {
		if t.eof() {
			t.error(ErrEOF, "")
		}
		t.error(ErrDelimiter, "expected a ] at the end of a reference value")
	}

	t.emit(tokIndirectEnd)
	t.emit(tokOperandEnd)
}

// readTerm reads a value which must be present.
func (t *tokenizer) readTerm() {
	if t.readValue() {
		return
	}
	if t.eof() {
		t.error(ErrEOF, "")
	}
	t.error(ErrValue, "unexpected %q; expected a value", t.peek())
}

// readValue reads a single value.
func (t *tokenizer) readValue() bool {
	return t.readNumber() || t.readCharlit() || t.readString() || t.readIdent()
}

// readExpression reads a $(...) expression. The emitted token holds the
// text between the parentheses.
func (t *tokenizer) readExpression() bool {
	if !t.readWord("$(") {
		return false
	}

	t.ignore()

	for depth := 1; ; {
		switch t.peek() {
		case 0:
			if t.eof() {
				t.error(ErrEOF, "")
			}
		case '(':
			depth++
		case ')':
			depth--
		}

		if depth == 0 {
			break
		}
		t.end++
	}

	t.emit(tokExpression)
	t.readChar(')')
	t.ignore()
	return true
}

// readNumber reads a numeric literal. The digits are validated by the
// parser; here we only collect the word.
func (t *tokenizer) readNumber() bool {
	if isDigit(t.peek()) || (t.peek() == '-' && isDigit(t.peekAt(1))) {
		t.end++
	} else {
		return false
	}

	for c := t.peek(); isAlpha(c) || isDigit(c) || c == '_'; c = t.peek() {
		t.end++
	}

	t.emit(tokNumber)
	return true
}

// readCharlit reads a character literal. This supports escape sequences.
func (t *tokenizer) readCharlit() bool {
	if !t.readChar('\'') {
		return false
	}

	t.readQuoted('\'')
	t.emit(tokChar)
	return true
}

// readString reads a string literal. This supports escape sequences.
func (t *tokenizer) readString() bool {
	if !t.readChar('"') {
		return false
	}

	t.readQuoted('"')
	t.emit(tokString)
	return true
}

// readQuoted reads up to and including the closing quote.
func (t *tokenizer) readQuoted(quote byte) {
	for {
		if t.eof() {
			t.error(ErrEOF, "")
		}

		switch t.read() {
		case '\n':
			t.error(ErrLiteral, "expected a %c at the end of the literal", quote)
		case '\\':
			t.end++
		case quote:
			return
		}
	}
}

// readIdent reads an identifier.
func (t *tokenizer) readIdent() bool {
	if !t.readName() {
		return false
	}
	t.emit(tokIdent)
	return true
}

// readName reads a name.
func (t *tokenizer) readName() bool {
	if c := t.peek(); c != '_' && !isAlpha(c) {
		return false
	}

	for c := t.peek(); c == '_' || c == '.' || isAlpha(c) || isDigit(c); c = t.peek() {
		t.end++
	}

	return true
}

// readWord reads bytes equal to the given string.
// Returns false if there is no match.
func (t *tokenizer) readWord(str string) bool {
	for _, c := range []byte(str) {
		if !t.readChar(c) {
			t.unread()
			return false
		}
	}
	return true
}

// readComment reads and skips code comments.
func (t *tokenizer) readComment() bool {
	if !t.readChar(';') {
		return false
	}

	for !t.eof() && t.peek() != '\n' {
		t.end++
	}

	t.ignore()
	return true
}

// readSpace reads whitespace, newlines included, and skips it.
func (t *tokenizer) readSpace() bool {
	n := t.end
	for isSpace(t.peek()) {
		t.end++
	}
	t.ignore()
	return t.end > n
}

// readInlineSpace reads whitespace up to the end of the line and skips it.
// A trailing comment is skipped as well.
func (t *tokenizer) readInlineSpace() bool {
	n := t.end
	for c := t.peek(); c != '\n' && isSpace(c); c = t.peek() {
		t.end++
	}
	t.ignore()

	if t.peek() == ';' {
		t.readComment()
	}
	return t.end > n
}

// atLineEnd returns true if the current line has no more content.
func (t *tokenizer) atLineEnd() bool {
	return t.eof() || t.peek() == '\n' || t.peek() == ';'
}

// readChar reads the next byte, only if it matches x.
func (t *tokenizer) readChar(x byte) bool {
	if !t.eof() && t.data[t.end] == x {
		t.end++
		return true
	}
	return false
}

// read reads the next byte from the stream.
func (t *tokenizer) read() byte {
	c := t.peek()
	t.end++
	return c
}

// peek returns the next byte without reading it, or 0 at the end.
func (t *tokenizer) peek() byte {
	return t.peekAt(0)
}

func (t *tokenizer) peekAt(n int) byte {
	if t.end+n >= len(t.data) {
		return 0
	}
	return t.data[t.end+n]
}

func (t *tokenizer) eof() bool {
	return t.end >= len(t.data)
}

// current returns the current read token.
func (t *tokenizer) current() string {
	return string(t.data[t.start:min(t.end, len(t.data))])
}

// position returns the source position of the given offset.
func (t *tokenizer) position(offset int) Position {
	line := sort.Search(len(t.lines), func(i int) bool {
		return t.lines[i] > offset
	}) - 1

	return Position{
		File:   t.file,
		Line:   line,
		Col:    offset - t.lines[line],
		Offset: offset,
	}
}

// error raises an error with the given category at the start of the
// current token.
func (t *tokenizer) error(err error, f string, argv ...any) {
	panic(NewError(t.position(t.start), err, f, argv...))
}

// emit emits a new token of the given type, using the currently
// read buffer.
func (t *tokenizer) emit(typ int) {
	t.emitFrom(typ, t.start)
}

// emitFrom emits the currently read buffer with the position of an
// earlier offset, such as the sigil in front of a name.
func (t *tokenizer) emitFrom(typ, offset int) {
	if err := t.tf(typ, t.position(offset), t.current()); err != nil {
		panic(err)
	}

	t.ignore()
}

// ignore skips the currently read buffer.
func (t *tokenizer) ignore() {
	t.start = t.end
}

// unread drops the current token.
func (t *tokenizer) unread() {
	t.end = t.start
}

func isAlpha(x byte) bool {
	return (x >= 'a' && x <= 'z') || (x >= 'A' && x <= 'Z')
}

func isDigit(x byte) bool {
	return x >= '0' && x <= '9'
}

func isSpace(x byte) bool {
	switch x {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}
