// Package asm implements an assembler which turns a source file and the
// files it includes into a program image, ready for use on the CPU.
package asm

import (
	"io/fs"
	"log"
	"path"

	"github.com/hexaflex/dcpu/asm/eval"
	"github.com/hexaflex/dcpu/asm/image"
	"github.com/hexaflex/dcpu/asm/parser"
)

// Assembler holds the settings for assembling programs.
// The zero value assembles a single source without includes at address 0.
type Assembler struct {
	Files    fs.FS    // Source for included files.
	Includes []string // Additional include search paths within Files.
	Origin   uint16   // Address of the first program word.
	Verbose  bool     // Log include resolution and unit sizes.
}

// Assemble assembles a single source text with default settings and
// returns the program words.
func Assemble(source string) ([]uint16, error) {
	var a Assembler
	img, err := a.Assemble("", source)
	if err != nil {
		return nil, err
	}
	return img.Words, nil
}

// AssembleFile reads the named file from a.Files and assembles it.
func (a *Assembler) AssembleFile(name string) (*image.Image, error) {
	if a.Files == nil {
		return nil, parser.NewError(parser.Position{File: name}, parser.ErrInclude, "no file system to read %q from", name)
	}

	name = path.Clean(name)
	data, err := fs.ReadFile(a.Files, name)
	if err != nil {
		return nil, parser.NewError(parser.Position{File: name}, parser.ErrInclude, "%v", err)
	}

	return a.assemble(name, data)
}

// Assemble assembles the given source. The name provides source context
// and is the base for relative includes.
func (a *Assembler) Assemble(name, source string) (*image.Image, error) {
	return a.assemble(name, []byte(source))
}

func (a *Assembler) assemble(name string, source []byte) (*image.Image, error) {
	b := &builder{
		asm:    a,
		consts: make(eval.Env),
	}

	if _, err := b.build(name, source, -1, nil); err != nil {
		return nil, err
	}

	return b.link()
}

// builder holds the state of a single assembly run.
type builder struct {
	asm    *Assembler
	units  []*unit  // Arena of translation units; the root is at index 0.
	consts eval.Env // Global constants defined so far.
}

// build parses source into a new unit and returns its arena index.
// dependencyChain holds the files currently being included, so that
// circular includes can be detected.
func (b *builder) build(file string, source []byte, parent int, dependencyChain []string) (int, error) {
	ast, err := parser.ParseBytes(source, file)
	if err != nil {
		return -1, err
	}

	index := len(b.units)
	u := newUnit(file, parent)
	b.units = append(b.units, u)
	dependencyChain = append(dependencyChain, file)

	for _, node := range ast.Nodes {
		switch n := node.(type) {
		case *parser.Label:
			err = b.addLabel(u, n)

		case *parser.Define:
			err = b.addDefine(u, n)

		case *parser.Include:
			err = b.addInclude(u, index, n, dependencyChain)

		case *parser.Instruction:
			u.items = append(u.items, item{node: n, child: -1, offset: u.length, scope: u.scope()})
			u.length += n.Size()

		case *parser.Data:
			u.items = append(u.items, item{node: n, child: -1, offset: u.length, scope: u.scope()})
			u.length += n.Size()
		}

		if err != nil {
			return -1, err
		}
	}

	if b.asm.Verbose {
		log.Printf("asm: %s: %d words", displayName(file), u.length)
	}

	return index, nil
}

// addLabel records a label definition. A global label starts a new local scope.
func (b *builder) addLabel(u *unit, n *parser.Label) error {
	if !n.Local {
		u.scopes = append(u.scopes, make(map[string]int))
		u.items = append(u.items, item{node: n, child: -1, offset: u.length, scope: u.scope()})
		return nil
	}

	scope := u.scopes[u.scope()]
	if _, ok := scope[n.Name]; ok {
		return parser.NewError(n.Pos, parser.ErrDuplicate, "local label %q", n.Name)
	}

	scope[n.Name] = u.length
	return nil
}

// addDefine evaluates a constant definition. Unit constants are stored
// with the unit, global ones are merged when the program is linked.
func (b *builder) addDefine(u *unit, n *parser.Define) error {
	value := n.Value.Num

	if len(n.Expr) > 0 {
		env := make(eval.Env, len(b.consts)+len(u.consts))
		for k, v := range b.consts {
			env[k] = v
		}
		for k, v := range u.consts {
			env[k] = v.value
		}

		v, err := eval.Evaluate(n.Expr, env)
		if err != nil {
			return parser.NewError(n.Pos, parser.ErrValue, "%v", err)
		}
		value = v
	}

	if n.Local {
		if _, ok := u.consts[n.Name]; ok {
			return parser.NewError(n.Pos, parser.ErrDuplicate, "constant %q", n.Name)
		}
		u.consts[n.Name] = symbol{value: value, pos: n.Pos}
		return nil
	}

	b.consts[n.Name] = value
	u.items = append(u.items, item{node: n, child: -1, offset: u.length, scope: u.scope(), value: value})
	return nil
}

// addInclude parses an included file into a child unit anchored at the
// current offset of u.
func (b *builder) addInclude(u *unit, index int, n *parser.Include, dependencyChain []string) error {
	file, ok := b.findSourceFile(n.Path, path.Dir(u.file))
	if !ok {
		return parser.NewError(n.Pos, parser.ErrInclude, "cannot include file at %q, file does not exist", n.Path)
	}

	if containsString(dependencyChain, file) {
		return parser.NewError(n.Pos, parser.ErrInclude, "circular reference to file %q detected", file)
	}

	data, err := fs.ReadFile(b.asm.Files, file)
	if err != nil {
		return parser.NewError(n.Pos, parser.ErrInclude, "%v", err)
	}

	if b.asm.Verbose {
		log.Printf("asm: %s: include %s at offset %d", displayName(u.file), file, u.length)
	}

	child, err := b.build(file, data, index, dependencyChain)
	if err != nil {
		return parser.WrapInclude(n.Pos, n.Path, err)
	}

	u.items = append(u.items, item{child: child, offset: u.length, scope: u.scope()})
	u.length += b.units[child].length
	return nil
}

// findSourceFile returns the path of the file to include. It looks
// relative to the including file first, then in each include search path.
func (b *builder) findSourceFile(file, dir string) (string, bool) {
	if b.asm.Files == nil {
		return "", false
	}

	candidates := []string{path.Join(dir, file)}
	for _, inc := range b.asm.Includes {
		candidates = append(candidates, path.Join(inc, file))
	}

	for _, name := range candidates {
		if stat, err := fs.Stat(b.asm.Files, name); err == nil && !stat.IsDir() {
			return name, true
		}
	}

	return "", false
}

// containsString returns true if set contains v.
func containsString(set []string, v string) bool {
	for _, sv := range set {
		if sv == v {
			return true
		}
	}
	return false
}

func displayName(file string) string {
	if len(file) == 0 {
		return "<source>"
	}
	return file
}
