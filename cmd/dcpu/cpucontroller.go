package main

import (
	"math/rand"
	"time"

	"github.com/hexaflex/dcpu/arch"
	"github.com/hexaflex/dcpu/cpu"
	"github.com/hexaflex/dcpu/devices"
)

// CPUController controls the execution of a CPU.
type CPUController struct {
	cpu        *cpu.CPU
	start      time.Time
	elapsed    time.Duration
	cycleCount uint64
	stepCount  uint64
}

// NewCPUController creates a new CPU controller.
// A seed of 0 leaves the CPU's own random source in place.
func NewCPUController(trace cpu.TraceFunc, seed int64, devices ...devices.Device) *CPUController {
	cpu := cpu.New(trace)

	if seed != 0 {
		cpu.SetRand(rand.New(rand.NewSource(seed)))
	}

	for _, dev := range devices {
		cpu.Connect(dev)
	}

	return &CPUController{
		cpu: cpu,
	}
}

// OnMemoryChange sets the handler for memory stores.
func (c *CPUController) OnMemoryChange(f cpu.MemoryFunc) {
	c.cpu.OnMemoryChange(f)
}

// Load resets the cpu and its peripherals and loads the program at offset.
// Execution starts at offset.
func (c *CPUController) Load(program []uint16, offset uint16) error {
	c.cpu.Reset()

	if err := c.cpu.LoadProgram(program, offset); err != nil {
		return err
	}

	c.cpu.SetRegister(arch.PC, offset)
	c.cycleCount = 0
	c.stepCount = 0
	return nil
}

// Run steps the cpu until it halts or maxSteps steps have been taken.
// A maxSteps of 0 means no limit.
func (c *CPUController) Run(maxSteps int) {
	c.start = time.Now()
	defer func() { c.elapsed += time.Since(c.start) }()

	for maxSteps <= 0 || c.stepCount < uint64(maxSteps) {
		if c.cpu.Halted() {
			return
		}
		c.Step()
	}
}

// Step performs a single execution step.
func (c *CPUController) Step() {
	c.cycleCount += uint64(c.cpu.Step())
	c.stepCount++
}

// Frequency returns the emulated clock frequency in herz, measured over
// all calls to Run.
func (c *CPUController) Frequency() float64 {
	if c.elapsed <= 0 {
		return 0
	}
	return float64(c.cycleCount) / c.elapsed.Seconds()
}

// State is a snapshot of the machine.
type State struct {
	Registers map[string]uint16
	Halted    bool
	OnFire    bool
	Pending   int // Queued interrupts.
	Queueing  bool
	Steps     uint64
	Cycles    uint64
}

// State returns a snapshot of the machine.
func (c *CPUController) State() State {
	s := State{
		Registers: make(map[string]uint16, arch.RegisterCount),
		Halted:    c.cpu.Halted(),
		OnFire:    c.cpu.OnFire(),
		Pending:   c.cpu.PendingInterrupts(),
		Queueing:  c.cpu.Queueing(),
		Steps:     c.stepCount,
		Cycles:    c.cycleCount,
	}

	for r := arch.Register(0); r < arch.RegisterCount; r++ {
		s.Registers[r.String()] = c.cpu.Register(r)
	}

	return s
}
