package emu

import (
	"fmt"
	"sync"

	"github.com/sarchlab/arm7core/insts"
)

// TraceEntry describes one retired pipeline slot.
type TraceEntry struct {
	Address  uint32
	Opcode   uint32
	Inst     *insts.Instruction
	Executed bool
	Err      error
}

// String renders the entry as "ADDRESS: OPCODE  TEXT", marking skipped
// instructions with a trailing "(skipped)".
func (e TraceEntry) String() string {
	text := insts.DisassembleAt(e.Inst, e.Address)
	s := fmt.Sprintf("%08X: %08X  %s", e.Address, e.Opcode, text)
	if !e.Executed && e.Err == nil {
		s += " (skipped)"
	}
	return s
}

// TraceSink receives one entry per retired slot.
type TraceSink interface {
	Trace(e TraceEntry)
}

// TraceFunc adapts a function to TraceSink.
type TraceFunc func(e TraceEntry)

// Trace implements TraceSink.
func (f TraceFunc) Trace(e TraceEntry) {
	f(e)
}

// TraceBuffer keeps the most recent entries up to a fixed capacity.
// It is safe for concurrent use.
type TraceBuffer struct {
	mu       sync.Mutex
	entries  []TraceEntry
	capacity int
	dropped  uint64
}

// NewTraceBuffer creates a buffer holding at most capacity entries.
// A capacity of 0 means unbounded.
func NewTraceBuffer(capacity int) *TraceBuffer {
	return &TraceBuffer{capacity: capacity}
}

// Trace implements TraceSink.
func (b *TraceBuffer) Trace(e TraceEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capacity > 0 && len(b.entries) == b.capacity {
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
		b.dropped++
	}
	b.entries = append(b.entries, e)
}

// Entries returns a copy of the buffered entries, oldest first.
func (b *TraceBuffer) Entries() []TraceEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]TraceEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of buffered entries.
func (b *TraceBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Dropped returns how many entries were evicted to respect the capacity.
func (b *TraceBuffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Reset discards every entry.
func (b *TraceBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
	b.dropped = 0
}
