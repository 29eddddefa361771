package conformance

import "github.com/sarchlab/arm7core/emu"

// TransactionBus is the bus a vector runs on. Code fetches of the vector's
// base address return its opcode. Data reads consume the vector's
// transactions in order, matched by address. Any other read returns its own
// aligned address. Every transfer is recorded.
type TransactionBus struct {
	vector *Vector
	next   int

	// Observed holds the transfers performed so far.
	Observed []Transaction
	// IdleCycles counts internal cycles.
	IdleCycles int
}

// NewTransactionBus creates a bus serving v.
func NewTransactionBus(v *Vector) *TransactionBus {
	return &TransactionBus{vector: v}
}

// consume returns the data of the next pending data read when it targets
// addr. Fetch and write entries are skipped.
func (b *TransactionBus) consume(addr uint32) (uint32, bool) {
	for b.next < len(b.vector.Transactions) {
		t := b.vector.Transactions[b.next]
		if t.Kind != KindRead {
			b.next++
			continue
		}
		if t.Addr != addr {
			return 0, false
		}
		b.next++
		return t.Data, true
	}
	return 0, false
}

func (b *TransactionBus) read(addr uint32, kind emu.AccessKind, size int) uint32 {
	var v uint32
	switch {
	case kind.Code() && addr == b.vector.BaseAddr:
		v = b.vector.Opcode
	case kind.Code():
		v = addr
	default:
		data, ok := b.consume(addr)
		if !ok {
			data = addr
		}
		v = data
	}

	tk := KindRead
	if kind.Code() {
		tk = KindInstructionRead
	}
	b.record(tk, size, addr, v, kind)

	return v
}

func (b *TransactionBus) record(k TransactionKind, size int, addr, data uint32, kind emu.AccessKind) {
	b.Observed = append(b.Observed, Transaction{
		Kind:   k,
		Size:   size,
		Addr:   addr,
		Data:   data,
		Access: uint8(kind),
	})
}

// Read8 implements emu.Bus.
func (b *TransactionBus) Read8(addr uint32, kind emu.AccessKind) uint8 {
	return uint8(b.read(addr, kind, 1))
}

// Read16 implements emu.Bus.
func (b *TransactionBus) Read16(addr uint32, kind emu.AccessKind) uint16 {
	return uint16(b.read(addr&^1, kind, 2))
}

// Read32 implements emu.Bus.
func (b *TransactionBus) Read32(addr uint32, kind emu.AccessKind) uint32 {
	return b.read(addr&^3, kind, 4)
}

// Write8 implements emu.Bus.
func (b *TransactionBus) Write8(addr uint32, v uint8, kind emu.AccessKind) {
	b.record(KindWrite, 1, addr, uint32(v), kind)
}

// Write16 implements emu.Bus.
func (b *TransactionBus) Write16(addr uint32, v uint16, kind emu.AccessKind) {
	b.record(KindWrite, 2, addr&^1, uint32(v), kind)
}

// Write32 implements emu.Bus.
func (b *TransactionBus) Write32(addr uint32, v uint32, kind emu.AccessKind) {
	b.record(KindWrite, 4, addr&^3, v, kind)
}

// Idle implements emu.Bus.
func (b *TransactionBus) Idle() {
	b.IdleCycles++
}
