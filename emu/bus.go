package emu

import "strings"

// AccessKind tags a bus access. Sequential and Code are independent bits;
// the zero value is a non-sequential data access.
type AccessKind uint8

// Access kinds.
const (
	AccessNonSequential AccessKind = 0
	AccessSequential    AccessKind = 1 << 0
	AccessCode          AccessKind = 1 << 1
)

// Sequential reports whether the access continues the previous one.
func (k AccessKind) Sequential() bool {
	return k&AccessSequential != 0
}

// Code reports whether the access is an instruction fetch.
func (k AccessKind) Code() bool {
	return k&AccessCode != 0
}

// String renders the kind as "N" or "S", prefixed by "Code|" for fetches.
func (k AccessKind) String() string {
	var parts []string
	if k.Code() {
		parts = append(parts, "Code")
	}
	if k.Sequential() {
		parts = append(parts, "S")
	} else {
		parts = append(parts, "N")
	}
	return strings.Join(parts, "|")
}

// Bus is the system bus seen by the core. Every access carries its kind so
// that a timing model can charge N and S cycles. Idle signals one internal
// cycle with no transfer.
type Bus interface {
	Read8(addr uint32, kind AccessKind) uint8
	Read16(addr uint32, kind AccessKind) uint16
	Read32(addr uint32, kind AccessKind) uint32
	Write8(addr uint32, v uint8, kind AccessKind)
	Write16(addr uint32, v uint16, kind AccessKind)
	Write32(addr uint32, v uint32, kind AccessKind)
	Idle()
}

// BusOp identifies the operation of a recorded bus transaction.
type BusOp uint8

// Bus operations.
const (
	BusRead BusOp = iota
	BusWrite
	BusIdle
)

// String returns the operation name.
func (op BusOp) String() string {
	switch op {
	case BusRead:
		return "read"
	case BusWrite:
		return "write"
	case BusIdle:
		return "idle"
	}
	return "?"
}

// Transaction is one recorded bus access. Size is 1, 2 or 4 for transfers
// and 0 for idle cycles.
type Transaction struct {
	Op    BusOp
	Kind  AccessKind
	Size  uint8
	Addr  uint32
	Value uint32
}

// RecordingBus forwards to another bus and records every access.
type RecordingBus struct {
	Bus          Bus
	Transactions []Transaction
}

// NewRecordingBus wraps b.
func NewRecordingBus(b Bus) *RecordingBus {
	return &RecordingBus{Bus: b}
}

// Reset discards the recorded transactions.
func (r *RecordingBus) Reset() {
	r.Transactions = r.Transactions[:0]
}

func (r *RecordingBus) record(op BusOp, kind AccessKind, size uint8, addr, value uint32) {
	r.Transactions = append(r.Transactions, Transaction{
		Op: op, Kind: kind, Size: size, Addr: addr, Value: value,
	})
}

// Read8 implements Bus.
func (r *RecordingBus) Read8(addr uint32, kind AccessKind) uint8 {
	v := r.Bus.Read8(addr, kind)
	r.record(BusRead, kind, 1, addr, uint32(v))
	return v
}

// Read16 implements Bus.
func (r *RecordingBus) Read16(addr uint32, kind AccessKind) uint16 {
	v := r.Bus.Read16(addr, kind)
	r.record(BusRead, kind, 2, addr, uint32(v))
	return v
}

// Read32 implements Bus.
func (r *RecordingBus) Read32(addr uint32, kind AccessKind) uint32 {
	v := r.Bus.Read32(addr, kind)
	r.record(BusRead, kind, 4, addr, v)
	return v
}

// Write8 implements Bus.
func (r *RecordingBus) Write8(addr uint32, v uint8, kind AccessKind) {
	r.record(BusWrite, kind, 1, addr, uint32(v))
	r.Bus.Write8(addr, v, kind)
}

// Write16 implements Bus.
func (r *RecordingBus) Write16(addr uint32, v uint16, kind AccessKind) {
	r.record(BusWrite, kind, 2, addr, uint32(v))
	r.Bus.Write16(addr, v, kind)
}

// Write32 implements Bus.
func (r *RecordingBus) Write32(addr uint32, v uint32, kind AccessKind) {
	r.record(BusWrite, kind, 4, addr, v)
	r.Bus.Write32(addr, v, kind)
}

// Idle implements Bus.
func (r *RecordingBus) Idle() {
	r.record(BusIdle, 0, 0, 0, 0)
	r.Bus.Idle()
}
