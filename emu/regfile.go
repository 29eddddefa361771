// Package emu provides functional ARM7TDMI emulation.
package emu

import "fmt"

// Register indices with a dedicated role.
const (
	RegSP uint8 = 13
	RegLR uint8 = 14
	RegPC uint8 = 15
)

// Saved status register slots, one per privileged mode.
const (
	spsrFIQ = iota
	spsrSVC
	spsrABT
	spsrIRQ
	spsrUND
	spsrCount
)

// RegFile is the banked ARM7TDMI register file.
//
// The user bank holds R0-R15 as seen in User and System mode. FIQ mode banks
// R8-R14; Supervisor, Abort, IRQ and Undefined bank R13-R14. Every access is
// resolved through the current CPSR mode, so switching modes never copies
// register contents.
type RegFile struct {
	usr [16]uint32
	fiq [7]uint32 // R8-R14
	svc [2]uint32 // R13-R14
	abt [2]uint32
	irq [2]uint32
	und [2]uint32

	cpsr uint32
	spsr [spsrCount]uint32
}

// NewRegFile returns a register file in its reset state: all registers zero,
// Supervisor mode, ARM state, IRQ and FIQ disabled.
func NewRegFile() *RegFile {
	r := &RegFile{}
	r.Reset()
	return r
}

// Reset restores the reset state.
func (r *RegFile) Reset() {
	*r = RegFile{cpsr: uint32(ModeSupervisor) | IRQDisable | FIQDisable}
}

// slot resolves register i in mode m to its storage.
func (r *RegFile) slot(m Mode, i uint8) *uint32 {
	if i > 15 {
		panic(fmt.Sprintf("emu: register index %d out of range", i))
	}

	switch m {
	case ModeUser, ModeSystem:
		return &r.usr[i]
	case ModeFIQ:
		if i >= 8 && i <= 14 {
			return &r.fiq[i-8]
		}
		return &r.usr[i]
	}

	if i == RegSP || i == RegLR {
		switch m {
		case ModeSupervisor:
			return &r.svc[i-13]
		case ModeAbort:
			return &r.abt[i-13]
		case ModeIRQ:
			return &r.irq[i-13]
		case ModeUndefined:
			return &r.und[i-13]
		}
		panic(fmt.Errorf("%w: %02X", ErrInvalidMode, uint8(m)))
	}

	return &r.usr[i]
}

// Reg reads register i of the current mode's bank.
func (r *RegFile) Reg(i uint8) uint32 {
	return *r.slot(r.Mode(), i)
}

// SetReg writes register i of the current mode's bank.
func (r *RegFile) SetReg(i uint8, v uint32) {
	*r.slot(r.Mode(), i) = v
}

// ModeReg reads register i as seen from mode m.
func (r *RegFile) ModeReg(m Mode, i uint8) uint32 {
	return *r.slot(m, i)
}

// SetModeReg writes register i as seen from mode m.
func (r *RegFile) SetModeReg(m Mode, i uint8, v uint32) {
	*r.slot(m, i) = v
}

// PC returns R15.
func (r *RegFile) PC() uint32 {
	return r.usr[RegPC]
}

// SetPC writes R15.
func (r *RegFile) SetPC(v uint32) {
	r.usr[RegPC] = v
}

// AdvancePC adds n to R15.
func (r *RegFile) AdvancePC(n uint32) {
	r.usr[RegPC] += n
}

// Flag reads one condition flag.
func (r *RegFile) Flag(f Flag) bool {
	return r.cpsr&f.mask() != 0
}

// SetFlag writes one condition flag.
func (r *RegFile) SetFlag(f Flag, v bool) {
	if v {
		r.cpsr |= f.mask()
	} else {
		r.cpsr &^= f.mask()
	}
}

// SetNZ sets the sign and zero flags from result.
func (r *RegFile) SetNZ(result uint32) {
	r.SetFlag(Sign, result&0x80000000 != 0)
	r.SetFlag(Zero, result == 0)
}

// Mode returns the current processor mode. A corrupted mode field is an
// invariant violation and panics.
func (r *RegFile) Mode() Mode {
	m, err := ModeFromBits(r.cpsr)
	if err != nil {
		panic(err)
	}
	return m
}

// SwitchMode changes the mode bits of the CPSR. Only the bank used to resolve
// later register accesses changes.
func (r *RegFile) SwitchMode(m Mode) {
	if _, err := ModeFromBits(uint32(m)); err != nil {
		panic(err)
	}
	r.cpsr = r.cpsr&^ModeMask | uint32(m)
}

// State returns the execution state selected by the T bit.
func (r *RegFile) State() ExecState {
	return StateFromBits(r.cpsr)
}

// SetState writes the T bit.
func (r *RegFile) SetState(s ExecState) {
	r.cpsr = r.cpsr&^StateBit | s.Bits()
}

// CPSR returns the current program status register.
func (r *RegFile) CPSR() uint32 {
	return r.cpsr
}

// SetCPSR overwrites the current program status register.
func (r *RegFile) SetCPSR(v uint32) {
	r.cpsr = v
}

func spsrIndex(m Mode) (int, bool) {
	switch m {
	case ModeFIQ:
		return spsrFIQ, true
	case ModeSupervisor:
		return spsrSVC, true
	case ModeAbort:
		return spsrABT, true
	case ModeIRQ:
		return spsrIRQ, true
	case ModeUndefined:
		return spsrUND, true
	}
	return 0, false
}

// SavedStatus returns the SPSR of the current mode. User and System mode have
// none, and read the CPSR instead.
func (r *RegFile) SavedStatus() uint32 {
	if i, ok := spsrIndex(r.Mode()); ok {
		return r.spsr[i]
	}
	return r.cpsr
}

// SetSavedStatus writes the SPSR of the current mode. It has no effect in
// User and System mode.
func (r *RegFile) SetSavedStatus(v uint32) {
	if i, ok := spsrIndex(r.Mode()); ok {
		r.spsr[i] = v
	}
}

// RestoreStatus copies the current mode's saved status into the CPSR.
func (r *RegFile) RestoreStatus() {
	r.cpsr = r.SavedStatus()
}

// Banks is a flat copy of every register bank.
type Banks struct {
	R    [16]uint32
	FIQ  [7]uint32
	SVC  [2]uint32
	ABT  [2]uint32
	IRQ  [2]uint32
	UND  [2]uint32
	CPSR uint32
	SPSR [5]uint32
}

// Banks returns a copy of the whole register file.
func (r *RegFile) Banks() Banks {
	return Banks{
		R:    r.usr,
		FIQ:  r.fiq,
		SVC:  r.svc,
		ABT:  r.abt,
		IRQ:  r.irq,
		UND:  r.und,
		CPSR: r.cpsr,
		SPSR: r.spsr,
	}
}

// SetBanks overwrites the whole register file.
func (r *RegFile) SetBanks(b Banks) {
	r.usr = b.R
	r.fiq = b.FIQ
	r.svc = b.SVC
	r.abt = b.ABT
	r.irq = b.IRQ
	r.und = b.UND
	r.cpsr = b.CPSR
	r.spsr = b.SPSR
}

// String renders the visible registers and status, one bank row per line.
func (r *RegFile) String() string {
	s := ""
	for i := uint8(0); i < 16; i++ {
		s += fmt.Sprintf("R%-2d=%08X", i, r.Reg(i))
		if i%4 == 3 {
			s += "\n"
		} else {
			s += " "
		}
	}
	flags := []byte("nzcv")
	for i, f := range []Flag{Sign, Zero, Carry, Overflow} {
		if r.Flag(f) {
			flags[i] -= 'a' - 'A'
		}
	}
	return s + fmt.Sprintf("CPSR=%08X [%s %s %s]", r.cpsr, flags, r.Mode(), r.State())
}
