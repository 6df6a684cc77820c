// Package cpu implements the emulator core: a 16-bit word machine with
// 64K words of memory, an interrupt queue and a hardware bus.
package cpu

import (
	"math/rand"
	"time"

	"github.com/hexaflex/dcpu/arch"
	"github.com/hexaflex/dcpu/devices"
)

// TraceFunc represents a callback handler for debug trace output.
type TraceFunc func(*Instruction)

// CPU implements the runtime.
//
// A CPU is not safe for concurrent use. Devices are called synchronously
// from Step and must not call Step themselves.
type CPU struct {
	devices   devices.Map                // Connected peripherals.
	trace     TraceFunc                  // Handler for debug trace output.
	onMemory  MemoryFunc                 // Handler for memory stores.
	memory    [MemorySize]uint16         // System memory.
	registers [arch.RegisterCount]uint16 // Register file.
	instr     Instruction                // Decoded instruction data.
	rng       *rand.Rand                 // Source of bit flips while on fire.
	intQueue  chan uint16                // Software and hardware interrupt queue.
	queueing  bool                       // Is interrupt delivery deferred?
	halted    bool                       // Has the machine stopped?
	onFire    bool                       // Is memory being corrupted?
}

var _ devices.CPU = &CPU{}

// New creates a new CPU. Optionally with the given debug trace handler.
func New(trace TraceFunc) *CPU {
	if trace == nil {
		trace = func(*Instruction) { /* nop */ }
	}

	return &CPU{
		trace:    trace,
		onMemory: func(uint16, uint16) { /* nop */ },
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		intQueue: make(chan uint16, IntQueueCapacity),
	}
}

// SetRand replaces the random source used while the machine is on fire.
func (c *CPU) SetRand(rng *rand.Rand) {
	c.rng = rng
}

// OnMemoryChange sets the handler called for every memory store.
func (c *CPU) OnMemoryChange(f MemoryFunc) {
	if f == nil {
		f = func(uint16, uint16) { /* nop */ }
	}
	c.onMemory = f
}

// Connect connects the given hardware peripheral to the system.
// Returns false if no more devices can be connected.
func (c *CPU) Connect(dev devices.Device) bool {
	return c.devices.Connect(dev)
}

// Devices returns the connected peripherals.
func (c *CPU) Devices() devices.Map {
	return c.devices
}

// Halted returns true if the machine has stopped.
func (c *CPU) Halted() bool {
	return c.halted
}

// OnFire returns true if the machine is on fire.
func (c *CPU) OnFire() bool {
	return c.onFire
}

// Reset clears registers, flags and the interrupt queue, and resets the
// connected devices. Memory is left as is.
func (c *CPU) Reset() {
	c.registers = [arch.RegisterCount]uint16{}
	c.queueing = false
	c.halted = false
	c.onFire = false
	c.drain()
	c.devices.Reset()
}

// Step performs a single execution step and returns the number of
// cycles it took. A halted machine takes 1 cycle and only keeps burning
// if it is on fire.
func (c *CPU) Step() int {
	if c.onFire {
		c.burn()
	}

	if c.halted {
		return 1
	}

	pc := c.registers[arch.PC]
	if c.memory[pc] == 0 {
		c.halted = true
		return 1
	}

	instr := &c.instr
	instr.decode(&c.memory, pc)
	c.registers[arch.PC] = pc + uint16(instr.Size)

	c.trace(instr)

	cycles := instr.Size - 1
	if instr.Opcode.Extended() {
		cycles += c.special(instr)
	} else {
		cycles += c.basic(instr)
	}

	c.devices.Tick(c, cycles)
	c.checkIntQueue()
	return cycles
}

// basic executes a two-operand instruction.
func (c *CPU) basic(instr *Instruction) int {
	a := c.resolve(instr.A)
	b := c.resolve(instr.B)
	av, bv := uint32(a.value), uint32(b.value)
	ex := &c.registers[arch.EX]

	switch instr.Opcode {
	case arch.SET:
		c.store(a, b.value)
		return 1
	case arch.ADD:
		v := av + bv
		*ex = uint16(v >> 16)
		c.store(a, uint16(v))
		return 2
	case arch.SUB:
		*ex = 0
		if bv > av {
			*ex = 0xffff
		}
		c.store(a, uint16(av-bv))
		return 2
	case arch.MUL:
		v := av * bv
		*ex = uint16(v >> 16)
		c.store(a, uint16(v))
		return 2
	case arch.DIV:
		if bv == 0 {
			*ex = 0
			c.store(a, 0)
		} else {
			*ex = uint16((av << 16) / bv)
			c.store(a, uint16(av/bv))
		}
		return 3
	case arch.MOD:
		if bv == 0 {
			c.store(a, 0)
		} else {
			c.store(a, uint16(av%bv))
		}
		return 3
	case arch.SHL:
		n := bv & 0x1f
		*ex = uint16((av << n) >> 16)
		c.store(a, uint16(av<<n))
		return 2
	case arch.SHR:
		n := bv & 0x1f
		*ex = uint16((av << 16) >> n)
		c.store(a, uint16(av>>n))
		return 2
	case arch.AND:
		c.store(a, a.value&b.value)
		return 1
	case arch.BOR:
		c.store(a, a.value|b.value)
		return 1
	case arch.XOR:
		c.store(a, a.value^b.value)
		return 1
	}

	var ok bool
	switch instr.Opcode {
	case arch.IFE:
		ok = av == bv
	case arch.IFN:
		ok = av != bv
	case arch.IFG:
		ok = av > bv
	case arch.IFB:
		ok = av&bv != 0
	}

	if ok {
		return 2
	}
	return 2 + c.skip()
}

// skip steps over the next instruction without executing it. The skip
// continues across a chain of conditionals. Returns the number of
// skipped instructions.
func (c *CPU) skip() int {
	pc := &c.registers[arch.PC]
	n := 0

	for {
		w := c.memory[*pc]
		*pc += uint16(arch.Length(w))
		n++

		if !conditional(w) || !conditional(c.memory[*pc]) {
			return n
		}
	}
}

// special executes a non-basic instruction. Reserved opcodes are no-ops
// and leave their operand unresolved.
func (c *CPU) special(instr *Instruction) int {
	if !instr.Opcode.Known() {
		return 1
	}

	a := c.resolve(instr.A)
	r := c.registers[:]

	switch instr.Opcode {
	case arch.JSR:
		c.push(r[arch.PC])
		r[arch.PC] = a.value
		return 2

	case arch.HCF:
		r[arch.PC] = instr.PC
		c.halted = true
		c.onFire = true
		return 9

	case arch.INT:
		if c.Interrupt(a.value) {
			return 4
		}
		return 2

	case arch.IAG:
		c.store(a, r[arch.IA])
		return 1

	case arch.IAS:
		r[arch.IA] = a.value
		return 1

	case arch.IAP:
		if r[arch.IA] != 0 {
			c.push(r[arch.IA])
			r[arch.IA] = a.value
		}
		return 3

	case arch.IAQ:
		c.queueing = a.value != 0
		return 3

	case arch.HWN:
		c.store(a, uint16(c.devices.Len()))
		return 2

	case arch.HWQ:
		if dev := c.devices.At(int(a.value)); dev != nil {
			id, mf := dev.ID(), dev.Manufacturer()
			r[arch.A] = id.Lo()
			r[arch.B] = id.Hi()
			r[arch.C] = dev.Version()
			r[arch.X] = mf.Lo()
			r[arch.Y] = mf.Hi()
		}
		return 4

	case arch.HWI:
		if dev := c.devices.At(int(a.value)); dev != nil {
			return 4 + dev.Interrupt(c)
		}
		return 4
	}

	return 1
}
