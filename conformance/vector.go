// Package conformance runs single-step test vectors against the ARM7TDMI
// core. A vector holds the complete core state before and after one
// instruction together with the bus transactions the instruction performs.
package conformance

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/arm7core/emu"
)

// State is the core state as stored in a vector file.
type State struct {
	R        [16]uint32 `json:"R"`
	RFIQ     [7]uint32  `json:"R_fiq"`
	RSVC     [2]uint32  `json:"R_svc"`
	RABT     [2]uint32  `json:"R_abt"`
	RIRQ     [2]uint32  `json:"R_irq"`
	RUND     [2]uint32  `json:"R_und"`
	CPSR     uint32     `json:"CPSR"`
	SPSR     [5]uint32  `json:"SPSR"`
	Pipeline [2]uint32  `json:"pipeline"`
	Access   uint8      `json:"access"`
}

// Snapshot converts s into a core snapshot.
func (s State) Snapshot() emu.Snapshot {
	return emu.Snapshot{
		Banks: emu.Banks{
			R:    s.R,
			FIQ:  s.RFIQ,
			SVC:  s.RSVC,
			ABT:  s.RABT,
			IRQ:  s.RIRQ,
			UND:  s.RUND,
			CPSR: s.CPSR,
			SPSR: s.SPSR,
		},
		Pipeline:   s.Pipeline,
		NextAccess: emu.AccessKind(s.Access) & accessMask,
	}
}

// StateFromSnapshot converts a core snapshot into a vector state.
func StateFromSnapshot(snap emu.Snapshot) State {
	return State{
		R:        snap.R,
		RFIQ:     snap.FIQ,
		RSVC:     snap.SVC,
		RABT:     snap.ABT,
		RIRQ:     snap.IRQ,
		RUND:     snap.UND,
		CPSR:     snap.CPSR,
		SPSR:     snap.SPSR,
		Pipeline: snap.Pipeline,
		Access:   uint8(snap.NextAccess),
	}
}

// TransactionKind identifies the direction of a vector transaction.
type TransactionKind uint32

// Transaction kinds.
const (
	KindInstructionRead TransactionKind = iota
	KindRead
	KindWrite
)

// String returns the kind name.
func (k TransactionKind) String() string {
	switch k {
	case KindInstructionRead:
		return "fetch"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// accessMask keeps the sequential and code bits of a vector access field.
// Vector files may carry further bits (lock, DMA) the core never issues.
const accessMask = emu.AccessSequential | emu.AccessCode

// Transaction is one bus transfer of a vector.
type Transaction struct {
	Kind   TransactionKind `json:"kind"`
	Size   int             `json:"size"`
	Addr   uint32          `json:"addr"`
	Data   uint32          `json:"data"`
	Cycle  int             `json:"cycle"`
	Access uint8           `json:"access"`
}

// Vector is one single-step test case.
type Vector struct {
	Initial      State         `json:"initial"`
	Final        State         `json:"final"`
	Transactions []Transaction `json:"transactions"`
	Opcode       uint32        `json:"opcode"`
	BaseAddr     uint32        `json:"base_addr"`
}

// Decode reads a JSON array of vectors.
func Decode(r io.Reader) ([]Vector, error) {
	var vectors []Vector
	if err := json.NewDecoder(r).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("failed to decode vectors: %w", err)
	}
	return vectors, nil
}

// LoadFile reads the vectors stored in path.
func LoadFile(path string) ([]Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer func() { _ = f.Close() }()

	vectors, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vectors, nil
}
