package monitor

import (
	"strings"
	"testing"

	"github.com/hexaflex/dcpu/arch"
	"github.com/hexaflex/dcpu/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interrupt(c *cpu.CPU, d *Device, a, b uint16) int {
	c.SetRegister(arch.A, a)
	c.SetRegister(arch.B, b)
	return d.Interrupt(c)
}

func setup() (*cpu.CPU, *Device) {
	c := cpu.New(nil)
	d := New()
	c.OnMemoryChange(d.Watch)
	return c, d
}

func TestScreen(t *testing.T) {
	assert := assert.New(t)
	c, d := setup()

	c.SetMemory(0x8000, 0xf000|'H')
	c.SetMemory(0x8001, 0xf000|'i')
	assert.False(d.Connected())
	assert.Nil(d.Lines())

	interrupt(c, d, mapScreen, 0x8000)
	require.True(t, d.Connected())

	lines := d.Lines()
	require.Len(t, lines, Height)
	assert.Equal("Hi"+strings.Repeat(" ", Width-2), lines[0])

	c.SetMemory(0x8002, 0x1a80|'!')
	c.SetMemory(0x8000+ScreenSize, 'x')
	assert.Equal(Cell{Char: '!', FG: 1, BG: 0xa, Blink: true}, d.Cell(2, 0))
	assert.Equal(Cell{}, d.Cell(Width, 0))
	assert.Equal("Hi!", strings.TrimSpace(d.String()))

	c.SetMemory(0x8000+Width, 'y')
	assert.Equal(byte('y'), d.Cell(0, 1).Char)

	interrupt(c, d, mapScreen, 0)
	assert.False(d.Connected())
}

func TestPalette(t *testing.T) {
	assert := assert.New(t)
	c, d := setup()

	def := DefaultPalette()
	assert.Equal(uint16(0x000), def[0])
	assert.Equal(uint16(0x00a), def[1])
	assert.Equal(uint16(0xa50), def[6])
	assert.Equal(uint16(0x555), def[8])
	assert.Equal(uint16(0xfff), def[15])
	assert.Equal(def, d.Palette())

	assert.Equal(PaletteSize, interrupt(c, d, dumpPalette, 0x9000))
	assert.Equal(uint16(0x00a), c.Memory(0x9001))

	interrupt(c, d, mapPalette, 0x9000)
	c.SetMemory(0x9001, 0x123)
	assert.Equal(uint16(0x123), d.Palette()[1])
	assert.Equal(uint16(0xfff), d.Palette()[15])

	r, g, b := RGB(0xa50)
	assert.Equal([]uint8{0xaa, 0x55, 0x00}, []uint8{r, g, b})
}

func TestFontAndBorder(t *testing.T) {
	assert := assert.New(t)
	c, d := setup()

	assert.Nil(d.Font())
	interrupt(c, d, mapFont, 0x7000)
	c.SetMemory(0x7000+FontSize-1, 0xbeef)
	font := d.Font()
	assert.Len(font, FontSize)
	assert.Equal(uint16(0xbeef), font[FontSize-1])

	assert.Equal(0, interrupt(c, d, setBorderColor, 0x1f))
	assert.Equal(uint16(0xf), d.Border())

	d.Reset()
	assert.Nil(d.Font())
	assert.Equal(uint16(0), d.Border())
	assert.False(d.Connected())
}
