// Package core provides the cycle-counting CPU core model.
// It couples the functional ARM7TDMI core with a timed bus to provide a
// high-level simulation interface.
package core

import (
	"errors"

	"github.com/sarchlab/arm7core/emu"
	"github.com/sarchlab/arm7core/timing/latency"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Instructions is the number of retired pipeline slots.
	Instructions uint64
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// NonSequential, Sequential and Idle count N, S and I cycles.
	NonSequential uint64
	Sequential    uint64
	Idle          uint64
	// Unknown is the number of slots that failed to decode.
	Unknown uint64
	// BufferHits is the number of fetches served by the fetch buffer.
	BufferHits uint64
}

// CPI returns the average number of cycles per retired slot.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Core represents a cycle-counting CPU core model.
type Core struct {
	// CPU is the functional core.
	CPU *emu.CPU

	// Bus is the timed bus the core executes on.
	Bus *TimingBus

	instructions uint64
	unknown      uint64

	halted bool
	err    error
}

// NewCore creates a new Core executing cpu on a timed view of bus.
func NewCore(cpu *emu.CPU, bus emu.Bus, table *latency.Table) *Core {
	return &Core{
		CPU: cpu,
		Bus: NewTimingBus(bus, table),
	}
}

// Tick retires one pipeline slot. A step error other than an unknown
// instruction halts the core.
func (c *Core) Tick() emu.StepResult {
	if c.halted {
		return emu.StepResult{Err: c.err}
	}

	result := c.CPU.Step(c.Bus)
	switch {
	case result.Err == nil:
		c.instructions++
	case errors.Is(result.Err, emu.ErrUnknownInstruction):
		c.instructions++
		c.unknown++
	default:
		c.halted = true
		c.err = result.Err
	}

	return result
}

// Halted returns true once the core has stopped on an error.
func (c *Core) Halted() bool {
	return c.halted
}

// Err returns the error that halted the core.
func (c *Core) Err() error {
	return c.err
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	bus := c.Bus.Stats()
	return Stats{
		Instructions:  c.instructions,
		Cycles:        bus.Cycles,
		NonSequential: bus.NonSequential,
		Sequential:    bus.Sequential,
		Idle:          bus.Idle,
		Unknown:       c.unknown,
		BufferHits:    bus.BufferHits,
	}
}

// Run retires up to maxInstructions slots, or without limit when
// maxInstructions is 0. It stops early at a branch to itself and returns the
// error that halted the core, if any.
func (c *Core) Run(maxInstructions uint64) error {
	for n := uint64(0); maxInstructions == 0 || n < maxInstructions; n++ {
		result := c.Tick()
		if c.halted {
			return c.err
		}
		if result.SelfLoop() {
			return nil
		}
	}
	return nil
}

// RunCycles executes the core until at least the specified number of cycles
// has elapsed. Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	target := c.Bus.Stats().Cycles + cycles
	for c.Bus.Stats().Cycles < target {
		c.Tick()
		if c.halted {
			return false
		}
	}
	return true
}

// Reset clears all core state.
func (c *Core) Reset() {
	c.CPU.Reset()
	c.Bus.Reset()
	c.instructions = 0
	c.unknown = 0
	c.halted = false
	c.err = nil
}
