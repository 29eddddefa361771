// Package latency provides memory timing models for cycle-accurate simulation.
//
// The ARM7TDMI spends its time on bus cycles: non-sequential (N) and
// sequential (S) transfers and internal (I) cycles. The cost of each transfer
// depends on the memory region it addresses and can be configured via
// TimingConfig.
package latency

import (
	"github.com/sarchlab/arm7core/emu"
)

// Table provides access cost lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default GBA timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// Region returns the region containing addr.
func (t *Table) Region(addr uint32) (RegionTiming, bool) {
	for _, r := range t.config.Regions {
		if r.Contains(addr) {
			return r, true
		}
	}
	return RegionTiming{}, false
}

// AccessCycles returns the cost of one access of size bytes at addr.
//
// An access wider than the region's bus is split into several transfers: the
// first one is charged as the kind says, the following ones as sequential.
func (t *Table) AccessCycles(addr uint32, kind emu.AccessKind, size int) uint64 {
	r, ok := t.Region(addr)
	if !ok {
		r = RegionTiming{
			NonSequential: t.config.UnmappedNonSequential,
			Sequential:    t.config.UnmappedSequential,
			Width:         32,
		}
	}

	transfers := uint64(1)
	if bits := size * 8; bits > int(r.Width) {
		transfers = uint64(bits / int(r.Width))
	}

	first := r.NonSequential
	if kind.Sequential() {
		first = r.Sequential
	}

	return first + (transfers-1)*r.Sequential
}

// BurstCycles returns the cost of reading words consecutive 32-bit words
// starting at addr: one non-sequential access followed by sequential ones.
func (t *Table) BurstCycles(addr uint32, words int) uint64 {
	if words <= 0 {
		return 0
	}

	cycles := t.AccessCycles(addr, emu.AccessNonSequential, 4)
	for i := 1; i < words; i++ {
		cycles += t.AccessCycles(addr+uint32(i)*4, emu.AccessSequential, 4)
	}
	return cycles
}

// IdleCycles returns the cost of one internal cycle.
func (t *Table) IdleCycles() uint64 {
	return t.config.IdleCycles
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
