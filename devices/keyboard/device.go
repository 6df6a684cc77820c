// Package keyboard implements the generic keyboard. The host feeds it
// key events through Press, Release and Type.
package keyboard

import (
	"sync"

	"github.com/hexaflex/dcpu/arch"
	"github.com/hexaflex/dcpu/devices"
)

// Known interrupt operations, selected by register A.
const (
	clearBuffer = iota
	nextKey
	isPressed
	setMessage
)

// Key codes outside the printable ASCII range 0x20-0x7f.
const (
	KeyBackspace = 0x10
	KeyReturn    = 0x11
	KeyInsert    = 0x12
	KeyDelete    = 0x13
	KeyUp        = 0x80
	KeyDown      = 0x81
	KeyLeft      = 0x82
	KeyRight     = 0x83
	KeyShift     = 0x90
	KeyControl   = 0x91
)

// BufferSize is the number of typed keys the device holds on to.
// Keys typed while the buffer is full are lost.
const BufferSize = 64

// Device holds the keyboard state.
type Device struct {
	mu      sync.Mutex
	buffer  []uint16        // Typed keys, oldest first.
	pressed map[uint16]bool // Keys currently held down.
	message uint16          // Interrupt message; 0 disables interrupts.
	events  int             // Key events not yet signalled to the CPU.
}

var (
	_ devices.Device   = &Device{}
	_ devices.Ticker   = &Device{}
	_ devices.Resetter = &Device{}
)

// New creates a new device.
func New() *Device {
	return &Device{
		pressed: make(map[uint16]bool),
	}
}

// ID returns the device id.
func (d *Device) ID() devices.ID {
	return 0x30cf7406
}

// Version returns the device revision.
func (d *Device) Version() uint16 {
	return 1
}

// Manufacturer returns the manufacturer code.
func (d *Device) Manufacturer() devices.ID {
	return 0
}

// Press records a key going down. Printable keys and the editing keys
// are added to the type buffer.
func (d *Device) Press(key uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pressed[key] = true
	d.events++

	if typed(key) && len(d.buffer) < BufferSize {
		d.buffer = append(d.buffer, key)
	}
}

// Release records a key going up.
func (d *Device) Release(key uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.pressed, key)
	d.events++
}

// Type presses and releases the keys for each character in s.
// A newline is typed as KeyReturn. Characters without a key are ignored.
func (d *Device) Type(s string) {
	for _, r := range s {
		var key uint16
		switch {
		case r == '\n':
			key = KeyReturn
		case r == '\b':
			key = KeyBackspace
		case r >= 0x20 && r < 0x7f:
			key = uint16(r)
		default:
			continue
		}

		d.Press(key)
		d.Release(key)
	}
}

// Buffered returns the number of keys in the type buffer.
func (d *Device) Buffered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffer)
}

// Interrupt handles a hardware interrupt.
//
//	A=0: clears the type buffer.
//	A=1: C is set to the next key in the buffer, or 0 if it is empty.
//	A=2: C is set to 1 if key B is held down, 0 otherwise.
//	A=3: B=0 disables interrupts, otherwise key events raise message B.
func (d *Device) Interrupt(cpu devices.CPU) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch cpu.Register(arch.A) {
	case clearBuffer:
		d.buffer = d.buffer[:0]
	case nextKey:
		var key uint16
		if len(d.buffer) > 0 {
			key = d.buffer[0]
			d.buffer = d.buffer[1:]
		}
		cpu.SetRegister(arch.C, key)
	case isPressed:
		var v uint16
		if d.pressed[cpu.Register(arch.B)] {
			v = 1
		}
		cpu.SetRegister(arch.C, v)
	case setMessage:
		d.message = cpu.Register(arch.B)
	}
	return 0
}

// Tick raises one interrupt per key event received since the last step.
func (d *Device) Tick(cpu devices.CPU, _ int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.message != 0 {
		for ; d.events > 0; d.events-- {
			cpu.Interrupt(d.message)
		}
	}
	d.events = 0
}

// Reset clears the buffer and all key state.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buffer = nil
	d.pressed = make(map[uint16]bool)
	d.message = 0
	d.events = 0
}

func typed(key uint16) bool {
	return (key >= 0x20 && key < 0x7f) || (key >= KeyBackspace && key <= KeyDelete)
}
