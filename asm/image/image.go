// Package image defines the assembled program image, as well as an
// encoder and decoder for its file format.
//
// The file format is the flat word stream, each word written big-endian.
package image

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/hexaflex/dcpu/asm/parser"
	"github.com/pkg/errors"
)

// Line describes the words produced by a single source statement.
type Line struct {
	Address uint16          // Address of the first word.
	Size    int             // Number of words.
	Pos     parser.Position // Statement position.
	Text    string          // Disassembly, or the DAT values.
}

// Image defines a complete, assembled program.
type Image struct {
	Origin  uint16   // Address the program is assembled for.
	Words   []uint16 // Program words.
	Listing []Line   // Optional per-statement listing. Not persisted.
}

// New creates a new, empty image.
func New() *Image {
	return &Image{}
}

// Load reads image data from the given stream. A trailing odd byte
// becomes the high byte of the last word.
func (m *Image) Load(r io.Reader) (err error) {
	defer recoverOnPanic(&err)

	m.Words = readWords(r)
	m.Listing = nil
	return
}

// Save writes the program words to the given stream.
func (m *Image) Save(w io.Writer) (err error) {
	defer recoverOnPanic(&err)

	writeWords(w, m.Words)
	return
}

func recoverOnPanic(err *error) {
	x := recover()
	if x == nil {
		return
	}

	switch tx := x.(type) {
	case runtime.Error:
		panic(tx)
	case error:
		*err = errors.Wrapf(tx, "image")
	default:
		*err = fmt.Errorf("image: %v", tx)
	}
}

// Dump writes a hex dump of the program, 8 words per row. The last row
// is padded with zeroes.
func (m *Image) Dump(w io.Writer) error {
	var sb strings.Builder

	rows := (len(m.Words) + 7) / 8
	for i := 0; i < rows*8; i++ {
		if i%8 == 0 {
			fmt.Fprintf(&sb, "  %04X: ", i)
		}

		var v uint16
		if i < len(m.Words) {
			v = m.Words[i]
		}
		fmt.Fprintf(&sb, "%04x ", v)

		if i%8 == 7 {
			sb.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// String returns a human-readable listing of the image's contents.
func (m *Image) String() string {
	var sb strings.Builder

	for _, ln := range m.Listing {
		start := int(ln.Address - m.Origin)

		words := make([]string, 0, ln.Size)
		for i := start; i < start+ln.Size && i < len(m.Words); i++ {
			words = append(words, fmt.Sprintf("%04x", m.Words[i]))
		}

		fmt.Fprintf(&sb, "%04x: %-14s %-28s ; %s\n",
			ln.Address, strings.Join(words, " "), ln.Text, ln.Pos)
	}

	return sb.String()
}
