package emu

import "fmt"

// Program status register bits.
const (
	FlagN uint32 = 1 << 31 // Sign
	FlagZ uint32 = 1 << 30 // Zero
	FlagC uint32 = 1 << 29 // Carry
	FlagV uint32 = 1 << 28 // Overflow

	IRQDisable uint32 = 1 << 7
	FIQDisable uint32 = 1 << 6
	StateBit   uint32 = 1 << 5
	ModeMask   uint32 = 0x1F
)

// Flag selects one of the four condition flags.
type Flag uint8

// Condition flags.
const (
	Sign Flag = iota
	Zero
	Carry
	Overflow
)

func (f Flag) mask() uint32 {
	switch f {
	case Sign:
		return FlagN
	case Zero:
		return FlagZ
	case Carry:
		return FlagC
	case Overflow:
		return FlagV
	}
	panic(fmt.Sprintf("emu: invalid flag %d", f))
}

// Mode is a processor mode, encoded as in CPSR bits [4:0].
type Mode uint8

// Processor modes.
const (
	ModeUser       Mode = 0b10000
	ModeFIQ        Mode = 0b10001
	ModeIRQ        Mode = 0b10010
	ModeSupervisor Mode = 0b10011
	ModeAbort      Mode = 0b10111
	ModeUndefined  Mode = 0b11011
	ModeSystem     Mode = 0b11111
)

// Modes lists every valid processor mode.
var Modes = []Mode{
	ModeUser, ModeFIQ, ModeIRQ, ModeSupervisor, ModeAbort, ModeUndefined, ModeSystem,
}

// String returns the conventional three letter mode name.
func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "USR"
	case ModeFIQ:
		return "FIQ"
	case ModeIRQ:
		return "IRQ"
	case ModeSupervisor:
		return "SVC"
	case ModeAbort:
		return "ABT"
	case ModeUndefined:
		return "UND"
	case ModeSystem:
		return "SYS"
	}
	return fmt.Sprintf("?%02X?", uint8(m))
}

// Privileged reports whether the mode owns a saved status register.
func (m Mode) Privileged() bool {
	return m != ModeUser && m != ModeSystem
}

// ModeFromBits decodes CPSR bits [4:0]. Reserved patterns are an error.
func ModeFromBits(bits uint32) (Mode, error) {
	switch Mode(bits & ModeMask) {
	case ModeUser:
		return ModeUser, nil
	case ModeFIQ:
		return ModeFIQ, nil
	case ModeIRQ:
		return ModeIRQ, nil
	case ModeSupervisor:
		return ModeSupervisor, nil
	case ModeAbort:
		return ModeAbort, nil
	case ModeUndefined:
		return ModeUndefined, nil
	case ModeSystem:
		return ModeSystem, nil
	}
	return 0, fmt.Errorf("%w: mode bits 0b%05b", ErrInvalidMode, bits&ModeMask)
}

// ExecState is the instruction set state selected by the CPSR T bit.
type ExecState uint8

// Execution states.
const (
	StateARM ExecState = iota
	StateThumb
)

// String returns the name of the state.
func (s ExecState) String() string {
	switch s {
	case StateARM:
		return "ARM"
	case StateThumb:
		return "THUMB"
	}
	return fmt.Sprintf("STATE(%d)", uint8(s))
}

// Bits returns the CPSR encoding of the state.
func (s ExecState) Bits() uint32 {
	switch s {
	case StateARM:
		return 0
	case StateThumb:
		return StateBit
	}
	panic(fmt.Sprintf("emu: invalid execution state %d", s))
}

// StateFromBits decodes the T bit of a status word.
func StateFromBits(psr uint32) ExecState {
	if psr&StateBit != 0 {
		return StateThumb
	}
	return StateARM
}

// InstructionSize returns the width in bytes of one instruction in state s.
func (s ExecState) InstructionSize() uint32 {
	if s == StateThumb {
		return 2
	}
	return 4
}
