package cache

import (
	"github.com/sarchlab/arm7core/emu"
)

// BusBacking adapts an emu.Bus as a BackingStore. Lines move as bursts of
// words: the first access non-sequential, the rest sequential.
type BusBacking struct {
	bus emu.Bus
}

// NewBusBacking creates a new BusBacking adapter.
func NewBusBacking(bus emu.Bus) *BusBacking {
	return &BusBacking{bus: bus}
}

// Read fetches size bytes from the bus, size being a multiple of 4.
func (b *BusBacking) Read(addr uint32, size int) []byte {
	data := make([]byte, size)
	kind := emu.AccessNonSequential
	for i := 0; i+4 <= size; i += 4 {
		storeData(data, uint32(i), 4, b.bus.Read32(addr+uint32(i), kind))
		kind = emu.AccessSequential
	}
	return data
}

// Write stores data to the bus as words.
func (b *BusBacking) Write(addr uint32, data []byte) {
	kind := emu.AccessNonSequential
	for i := 0; i+4 <= len(data); i += 4 {
		b.bus.Write32(addr+uint32(i), extractData(data, uint32(i), 4), kind)
		kind = emu.AccessSequential
	}
}
