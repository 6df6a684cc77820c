// Package devices defines the contract between the CPU and the hardware
// attached to it.
package devices

import (
	"log"

	"github.com/hexaflex/dcpu/arch"
)

// CPU is the view of the processor a device gets. Devices may read and
// write registers and memory in place while they handle an interrupt.
type CPU interface {
	Register(r arch.Register) uint16
	SetRegister(r arch.Register, value uint16)
	Memory(addr uint16) uint16
	SetMemory(addr, value uint16)

	// Interrupt queues a software interrupt with the given message.
	// Returns false if it was dropped.
	Interrupt(msg uint16) bool
}

// Device represents a peripheral device.
// It can interact with a program through hardware interrupts.
type Device interface {
	// ID yields the hardware id of the device.
	ID() ID

	// Version yields the hardware revision.
	Version() uint16

	// Manufacturer yields the manufacturer code.
	Manufacturer() ID

	// Interrupt is called synchronously by the HWI instruction.
	// It returns the number of additional cycles the operation took.
	Interrupt(CPU) int
}

// Ticker is implemented by devices that need to follow the passing of
// time. Tick is called after every CPU step with the cycles it took.
type Ticker interface {
	Tick(cpu CPU, cycles int)
}

// Resetter is implemented by devices with state that must be cleared
// when the CPU is reset.
type Resetter interface {
	Reset()
}

// Map contains a list of connected peripherals.
// A device's index in the map is the index used by HWQ and HWI.
type Map []Device

// Connect adds the given device to the device map.
// Returns false if the map is full.
func (dm *Map) Connect(dev Device) bool {
	if len(*dm) >= 0xffff {
		return false
	}

	log.Println(dev.ID(), "connect at", len(*dm))
	*dm = append(*dm, dev)
	return true
}

// Len returns the number of connected devices.
func (dm Map) Len() int {
	return len(dm)
}

// At returns the device with the given index.
// Returns nil if the index is not valid.
func (dm Map) At(index int) Device {
	if index < 0 || index >= len(dm) {
		return nil
	}
	return dm[index]
}

// Find returns the index of the first device with the given id.
// Returns -1 if it can't be found.
func (dm Map) Find(id ID) int {
	for i, dev := range dm {
		if dev.ID() == id {
			return i
		}
	}
	return -1
}

// Tick passes the cycles of a CPU step to every device that wants them.
func (dm Map) Tick(cpu CPU, cycles int) {
	for _, dev := range dm {
		if t, ok := dev.(Ticker); ok {
			t.Tick(cpu, cycles)
		}
	}
}

// Reset clears the state of every device that has any.
func (dm Map) Reset() {
	for _, dev := range dm {
		if r, ok := dev.(Resetter); ok {
			log.Println(dev.ID(), "reset")
			r.Reset()
		}
	}
}
