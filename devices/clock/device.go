// Package clock implements the generic clock: a timer that ticks at a
// programmable rate and can raise interrupts on every tick.
package clock

import (
	"github.com/hexaflex/dcpu/arch"
	"github.com/hexaflex/dcpu/devices"
)

// Known interrupt operations, selected by register A.
const (
	SetRate = iota
	GetTicks
	SetMessage
)

// CPUFrequency is the number of CPU cycles per emulated second.
const CPUFrequency = 100000

// Device holds the clock state. The clock is driven by CPU cycles,
// not wall time, so a program sees the same timing at any host speed.
type Device struct {
	rate    uint16 // Clock ticks 60/rate times per second. 0 is off.
	ticks   uint16 // Ticks since the last SetRate.
	message uint16 // Interrupt message; 0 disables interrupts.
	elapsed int    // Accumulated cycles, scaled by 60.
}

var (
	_ devices.Device   = &Device{}
	_ devices.Ticker   = &Device{}
	_ devices.Resetter = &Device{}
)

// New creates a new, stopped clock.
func New() *Device {
	return &Device{}
}

// ID returns the device id.
func (d *Device) ID() devices.ID {
	return 0x12d0b402
}

// Version returns the device revision.
func (d *Device) Version() uint16 {
	return 1
}

// Manufacturer returns the manufacturer code.
func (d *Device) Manufacturer() devices.ID {
	return 0
}

// Interrupt handles a hardware interrupt.
//
//	A=0: B=0 stops the clock, otherwise it ticks 60/B times a second.
//	A=1: C is set to the number of ticks since the last A=0 call.
//	A=2: B=0 disables interrupts, otherwise ticks raise interrupt message B.
func (d *Device) Interrupt(cpu devices.CPU) int {
	switch cpu.Register(arch.A) {
	case SetRate:
		d.rate = cpu.Register(arch.B)
		d.ticks = 0
		d.elapsed = 0
	case GetTicks:
		cpu.SetRegister(arch.C, d.ticks)
	case SetMessage:
		d.message = cpu.Register(arch.B)
	}
	return 0
}

// Tick advances the clock by the given number of CPU cycles.
func (d *Device) Tick(cpu devices.CPU, cycles int) {
	if d.rate == 0 {
		return
	}

	period := CPUFrequency * int(d.rate)
	d.elapsed += cycles * 60

	for d.elapsed >= period {
		d.elapsed -= period
		d.ticks++

		if d.message != 0 {
			cpu.Interrupt(d.message)
		}
	}
}

// Reset stops the clock.
func (d *Device) Reset() {
	*d = Device{}
}

// Ticks returns the number of ticks since the rate was last set.
func (d *Device) Ticks() uint16 {
	return d.ticks
}
