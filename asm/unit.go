package asm

import "github.com/hexaflex/dcpu/asm/parser"

// unit is a single translation unit: one source file, with the units of
// the files it includes anchored at the word offset of the .include.
// Units live in the builder's arena and refer to each other by index.
type unit struct {
	file   string
	parent int // Arena index of the including unit; -1 for the root.
	items  []item
	length int               // Size in words, children included.
	consts map[string]symbol // .ldefine constants.
	scopes []map[string]int  // Local labels per scope, as offsets into the unit.
}

// item is an entry in a unit, in source order.
// Exactly one of node or child is set.
type item struct {
	node   parser.Node // *parser.Instruction, *parser.Data, *parser.Label or *parser.Define.
	child  int         // Arena index of an included unit, or -1.
	offset int         // Word offset relative to the start of the unit.
	scope  int         // Index of the local scope the item belongs to.
	value  uint16      // Evaluated value for a global *parser.Define.
}

// symbol is a resolved name.
type symbol struct {
	value uint16
	pos   parser.Position
}

func newUnit(file string, parent int) *unit {
	return &unit{
		file:   file,
		parent: parent,
		consts: make(map[string]symbol),
		scopes: []map[string]int{make(map[string]int)},
	}
}

// scope returns the index of the current local scope.
func (u *unit) scope() int {
	return len(u.scopes) - 1
}

// visitFunc is called for each item in the tree, with the absolute
// address of the unit owning it.
type visitFunc func(u *unit, it *item, base uint16) error

// walk visits all items of the tree rooted at unit 0 depth-first in
// address order. It uses an explicit stack, so include depth does not
// grow the call stack.
func (b *builder) walk(origin uint16, fn visitFunc) error {
	type frame struct {
		unit  int
		index int
		base  uint16
	}

	stack := []frame{{unit: 0, base: origin}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		u := b.units[top.unit]

		if top.index >= len(u.items) {
			stack = stack[:len(stack)-1]
			continue
		}

		it := &u.items[top.index]
		top.index++

		if it.child > -1 {
			stack = append(stack, frame{unit: it.child, base: top.base + uint16(it.offset)})
			continue
		}

		if err := fn(u, it, top.base); err != nil {
			return err
		}
	}

	return nil
}
