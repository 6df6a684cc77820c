package cpu

import "github.com/hexaflex/dcpu/arch"

// IntQueueCapacity is the capacity of the CPU interrupt queue.
const IntQueueCapacity = 256

// Interrupt adds a new message to the interrupt queue, provided a
// handler is installed in IA. A full queue sets the machine on fire.
// Returns true if the message was queued.
func (c *CPU) Interrupt(msg uint16) bool {
	if c.registers[arch.IA] == 0 {
		return false
	}

	select {
	case c.intQueue <- msg:
		return true
	default:
		c.onFire = true
		return false
	}
}

// PendingInterrupts returns the number of queued interrupts.
func (c *CPU) PendingInterrupts() int {
	return len(c.intQueue)
}

// Queueing returns true if interrupt delivery is deferred.
func (c *CPU) Queueing() bool {
	return c.queueing
}

// SetQueueing defers or resumes interrupt delivery, like IAQ.
func (c *CPU) SetQueueing(v bool) {
	c.queueing = v
}

// checkIntQueue checks if there are pending messages in the interrupt queue.
// If so, it hands control over to the interrupt handler defined in IA.
// A message is discarded if IA was cleared after it was queued.
func (c *CPU) checkIntQueue() {
	if c.queueing || c.halted {
		return
	}

	select {
	case msg := <-c.intQueue:
		r := c.registers[:]
		if r[arch.IA] == 0 {
			return
		}

		c.push(r[arch.PC])
		c.push(r[arch.A])

		r[arch.PC] = r[arch.IA]
		r[arch.A] = msg
	default:
	}
}

// drain empties the interrupt queue.
func (c *CPU) drain() {
	for {
		select {
		case <-c.intQueue:
		default:
			return
		}
	}
}
