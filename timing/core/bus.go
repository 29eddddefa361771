package core

import (
	"github.com/sarchlab/arm7core/emu"
	"github.com/sarchlab/arm7core/timing/cache"
	"github.com/sarchlab/arm7core/timing/latency"
)

// BusStats counts the bus activity seen by a TimingBus.
type BusStats struct {
	// Cycles is the total cost of every access and internal cycle.
	Cycles uint64
	// NonSequential and Sequential count transfers by kind.
	NonSequential uint64
	Sequential    uint64
	// Idle counts internal cycles.
	Idle uint64
	// BufferHits and BufferMisses count code fetches seen by the fetch buffer.
	BufferHits   uint64
	BufferMisses uint64
}

// TimingBus wraps an emu.Bus and charges cycles for every access it
// forwards. Code fetches may be served by a fetch buffer; any write drops
// the buffered line it touches.
type TimingBus struct {
	bus    emu.Bus
	table  *latency.Table
	buffer *cache.Cache

	stats BusStats
}

// NewTimingBus creates a timing bus in front of bus. A fetch buffer is built
// when the table's configuration enables one.
func NewTimingBus(bus emu.Bus, table *latency.Table) *TimingBus {
	t := &TimingBus{bus: bus, table: table}

	fb := table.Config().FetchBuffer
	if fb.Enabled {
		t.buffer = cache.New(cache.Config{
			Size:          fb.Size,
			Associativity: fb.Associativity,
			BlockSize:     fb.BlockSize,
			HitLatency:    fb.HitLatency,
		}, cache.NewBusBacking(bus))
	}

	return t
}

// Stats returns the accumulated statistics.
func (t *TimingBus) Stats() BusStats {
	return t.stats
}

// FetchBuffer returns the fetch buffer, or nil when disabled.
func (t *TimingBus) FetchBuffer() *cache.Cache {
	return t.buffer
}

// Reset clears the statistics and empties the fetch buffer.
func (t *TimingBus) Reset() {
	t.stats = BusStats{}
	if t.buffer != nil {
		t.buffer.Reset()
	}
}

func (t *TimingBus) count(kind emu.AccessKind) {
	if kind.Sequential() {
		t.stats.Sequential++
	} else {
		t.stats.NonSequential++
	}
}

func (t *TimingBus) charge(addr uint32, kind emu.AccessKind, size int) {
	t.count(kind)
	t.stats.Cycles += t.table.AccessCycles(addr, kind, size)
}

// fetch serves a code read through the fetch buffer.
func (t *TimingBus) fetch(addr uint32, kind emu.AccessKind, size int) uint32 {
	t.count(kind)

	blockSize := t.buffer.Config().BlockSize
	result := t.buffer.Read(addr, size)
	if result.Hit {
		t.stats.BufferHits++
		t.stats.Cycles += result.Latency
	} else {
		t.stats.BufferMisses++
		lineAddr := addr &^ uint32(blockSize-1)
		t.stats.Cycles += t.table.BurstCycles(lineAddr, blockSize/4)
	}

	return result.Data
}

// Read8 implements emu.Bus.
func (t *TimingBus) Read8(addr uint32, kind emu.AccessKind) uint8 {
	t.charge(addr, kind, 1)
	return t.bus.Read8(addr, kind)
}

// Read16 implements emu.Bus.
func (t *TimingBus) Read16(addr uint32, kind emu.AccessKind) uint16 {
	if kind.Code() && t.buffer != nil {
		return uint16(t.fetch(addr&^1, kind, 2))
	}
	t.charge(addr, kind, 2)
	return t.bus.Read16(addr, kind)
}

// Read32 implements emu.Bus.
func (t *TimingBus) Read32(addr uint32, kind emu.AccessKind) uint32 {
	if kind.Code() && t.buffer != nil {
		return t.fetch(addr&^3, kind, 4)
	}
	t.charge(addr, kind, 4)
	return t.bus.Read32(addr, kind)
}

func (t *TimingBus) invalidate(addr uint32) {
	if t.buffer != nil {
		t.buffer.Invalidate(addr)
	}
}

// Write8 implements emu.Bus.
func (t *TimingBus) Write8(addr uint32, v uint8, kind emu.AccessKind) {
	t.charge(addr, kind, 1)
	t.invalidate(addr)
	t.bus.Write8(addr, v, kind)
}

// Write16 implements emu.Bus.
func (t *TimingBus) Write16(addr uint32, v uint16, kind emu.AccessKind) {
	t.charge(addr, kind, 2)
	t.invalidate(addr)
	t.bus.Write16(addr, v, kind)
}

// Write32 implements emu.Bus.
func (t *TimingBus) Write32(addr uint32, v uint32, kind emu.AccessKind) {
	t.charge(addr, kind, 4)
	t.invalidate(addr)
	t.bus.Write32(addr, v, kind)
}

// Idle implements emu.Bus.
func (t *TimingBus) Idle() {
	t.stats.Idle++
	t.stats.Cycles += t.table.IdleCycles()
	t.bus.Idle()
}
