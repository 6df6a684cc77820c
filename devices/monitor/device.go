// Package monitor implements a headless LEM1802 text monitor.
//
// The monitor never reads CPU memory on its own. Once a region is mapped
// it mirrors the region's contents, kept current by feeding every memory
// store to Watch. Hosts hook it up with:
//
//	cpu.OnMemoryChange(monitor.Watch)
package monitor

import (
	"strings"
	"sync"

	"github.com/hexaflex/dcpu/arch"
	"github.com/hexaflex/dcpu/devices"
)

// Known interrupt operations, selected by register A.
const (
	mapScreen = iota
	mapFont
	mapPalette
	setBorderColor
	dumpFont
	dumpPalette
)

// Various display properties.
const (
	Width       = 32            // Display width in cells.
	Height      = 12            // Display height in cells.
	ScreenSize  = Width * Height // Size of the screen buffer in words.
	FontSize    = 256           // Size of the font in words; two words per glyph.
	PaletteSize = 16            // Number of colors in the palette.
)

// Cell is a single decoded screen cell.
type Cell struct {
	Char  byte  // 7-bit character.
	FG    uint8 // Foreground palette index.
	BG    uint8 // Background palette index.
	Blink bool
}

// DecodeCell splits a screen word into its parts.
func DecodeCell(v uint16) Cell {
	return Cell{
		Char:  byte(v & 0x7f),
		Blink: v&0x80 != 0,
		BG:    uint8(v>>8) & 0xf,
		FG:    uint8(v>>12) & 0xf,
	}
}

// region is a block of CPU memory mirrored by the device.
type region struct {
	base  uint16
	words []uint16 // nil while unmapped.
}

// load maps the region at base and copies its current contents.
// A base of 0 unmaps it.
func (r *region) load(cpu devices.CPU, base uint16, size int) {
	r.base = base
	if base == 0 {
		r.words = nil
		return
	}

	r.words = make([]uint16, size)
	for i := range r.words {
		r.words[i] = cpu.Memory(base + uint16(i))
	}
}

// watch applies a memory store if it falls inside the region.
func (r *region) watch(addr, value uint16) {
	if r.words == nil {
		return
	}

	offset := int(addr - r.base)
	if offset < len(r.words) {
		r.words[offset] = value
	}
}

// Device holds the monitor state.
type Device struct {
	mu      sync.Mutex
	screen  region
	font    region
	palette region
	border  uint16
}

var (
	_ devices.Device   = &Device{}
	_ devices.Resetter = &Device{}
)

// New creates a new, disconnected monitor.
func New() *Device {
	return &Device{}
}

// ID returns the device id.
func (d *Device) ID() devices.ID {
	return 0x7349f615
}

// Version returns the device revision.
func (d *Device) Version() uint16 {
	return 0x1802
}

// Manufacturer returns the manufacturer code.
func (d *Device) Manufacturer() devices.ID {
	return 0x1c6c8b36
}

// Interrupt handles a hardware interrupt. Mapping an address of 0
// restores the default for that region; for the screen it disconnects
// the display.
func (d *Device) Interrupt(cpu devices.CPU) int {
	b := cpu.Register(arch.B)

	// Stores come back through Watch, so they happen without the lock.
	if cpu.Register(arch.A) == dumpPalette {
		for i, c := range DefaultPalette() {
			cpu.SetMemory(b+uint16(i), c)
		}
		return PaletteSize
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch cpu.Register(arch.A) {
	case mapScreen:
		d.screen.load(cpu, b, ScreenSize)
	case mapFont:
		d.font.load(cpu, b, FontSize)
	case mapPalette:
		d.palette.load(cpu, b, PaletteSize)
	case setBorderColor:
		d.border = b & 0xf
	case dumpFont:
		// The headless monitor carries no built-in font image.
	}
	return 0
}

// Watch mirrors a memory store into the mapped regions.
// It has the signature of the CPU's memory change callback.
func (d *Device) Watch(addr, value uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.screen.watch(addr, value)
	d.font.watch(addr, value)
	d.palette.watch(addr, value)
}

// Reset disconnects the display and restores all defaults.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.screen = region{}
	d.font = region{}
	d.palette = region{}
	d.border = 0
}

// Connected returns true if a screen buffer is mapped.
func (d *Device) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screen.words != nil
}

// Cell returns the cell at the given screen position.
func (d *Device) Cell(x, y int) Cell {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.screen.words == nil || x < 0 || x >= Width || y < 0 || y >= Height {
		return Cell{}
	}
	return DecodeCell(d.screen.words[y*Width+x])
}

// Border returns the palette index of the border color.
func (d *Device) Border() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.border
}

// Palette returns the active palette as 0x0RGB words.
func (d *Device) Palette() [PaletteSize]uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.palette.words == nil {
		return DefaultPalette()
	}

	var p [PaletteSize]uint16
	copy(p[:], d.palette.words)
	return p
}

// Font returns the mapped font, or nil if the default font is in use.
func (d *Device) Font() []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.font.words == nil {
		return nil
	}
	return append([]uint16(nil), d.font.words...)
}

// Lines returns the screen contents as text, one string per row.
// Unprintable characters show as spaces. A disconnected screen yields nil.
func (d *Device) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.screen.words == nil {
		return nil
	}

	lines := make([]string, Height)
	row := make([]byte, Width)

	for y := range lines {
		for x := range row {
			c := DecodeCell(d.screen.words[y*Width+x]).Char
			if c < 0x20 || c == 0x7f {
				c = ' '
			}
			row[x] = c
		}
		lines[y] = string(row)
	}

	return lines
}

func (d *Device) String() string {
	return strings.Join(d.Lines(), "\n")
}

// DefaultPalette returns the built-in palette: the 16 CGA colors.
func DefaultPalette() [PaletteSize]uint16 {
	var p [PaletteSize]uint16

	for i := range p {
		b := uint16(i&1) * 0xa
		g := uint16(i>>1&1) * 0xa
		r := uint16(i>>2&1) * 0xa

		if i == 6 {
			g -= 5
		} else if i >= 8 {
			r += 5
			g += 5
			b += 5
		}

		p[i] = r<<8 | g<<4 | b
	}

	return p
}

// RGB expands a 0x0RGB palette word to 8-bit channels.
func RGB(c uint16) (r, g, b uint8) {
	return uint8(c>>8&0xf) * 0x11, uint8(c>>4&0xf) * 0x11, uint8(c&0xf) * 0x11
}
