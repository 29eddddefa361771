package emu

import "encoding/binary"

const (
	pageBits = 12
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

// Memory is a sparse, little-endian, 32-bit address space. Pages are
// allocated on first write; unwritten memory reads as zero. Halfword and word
// accesses are forced to their natural alignment.
type Memory struct {
	pages map[uint32]*[pageSize]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*[pageSize]byte)}
}

func (m *Memory) page(addr uint32, alloc bool) *[pageSize]byte {
	p, ok := m.pages[addr>>pageBits]
	if !ok && alloc {
		p = new([pageSize]byte)
		m.pages[addr>>pageBits] = p
	}
	return p
}

// LoadProgram copies data into memory starting at addr.
func (m *Memory) LoadProgram(addr uint32, data []byte) {
	for len(data) > 0 {
		p := m.page(addr, true)
		n := copy(p[addr&pageMask:], data)
		data = data[n:]
		addr += uint32(n)
	}
}

// Read8 implements Bus.
func (m *Memory) Read8(addr uint32, _ AccessKind) uint8 {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr&pageMask]
}

// Read16 implements Bus.
func (m *Memory) Read16(addr uint32, _ AccessKind) uint16 {
	addr &^= 1
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(p[addr&pageMask:])
}

// Read32 implements Bus.
func (m *Memory) Read32(addr uint32, _ AccessKind) uint32 {
	addr &^= 3
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p[addr&pageMask:])
}

// Write8 implements Bus.
func (m *Memory) Write8(addr uint32, v uint8, _ AccessKind) {
	m.page(addr, true)[addr&pageMask] = v
}

// Write16 implements Bus.
func (m *Memory) Write16(addr uint32, v uint16, _ AccessKind) {
	addr &^= 1
	binary.LittleEndian.PutUint16(m.page(addr, true)[addr&pageMask:], v)
}

// Write32 implements Bus.
func (m *Memory) Write32(addr uint32, v uint32, _ AccessKind) {
	addr &^= 3
	binary.LittleEndian.PutUint32(m.page(addr, true)[addr&pageMask:], v)
}

// Idle implements Bus.
func (m *Memory) Idle() {}

// WriteWords stores consecutive little-endian words starting at addr.
func (m *Memory) WriteWords(addr uint32, words ...uint32) {
	for i, w := range words {
		m.Write32(addr+uint32(i)*4, w, AccessNonSequential)
	}
}
