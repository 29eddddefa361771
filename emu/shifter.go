package emu

import (
	"math/bits"

	"github.com/sarchlab/arm7core/insts"
)

// ShiftImmediate applies a shift whose amount is encoded in the instruction.
// An amount of zero selects the special forms: LSL #0 passes the value and
// carry through, LSR #0 and ASR #0 mean a shift by 32, ROR #0 means RRX.
func ShiftImmediate(t insts.ShiftType, value uint32, amount uint8, carry bool) (uint32, bool) {
	if amount == 0 {
		switch t {
		case insts.ShiftLSL:
			return value, carry
		case insts.ShiftLSR:
			return 0, value&0x80000000 != 0
		case insts.ShiftASR:
			if value&0x80000000 != 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		case insts.ShiftROR:
			out := value >> 1
			if carry {
				out |= 0x80000000
			}
			return out, value&1 != 0
		}
	}
	return shift(t, value, uint32(amount), carry)
}

// ShiftRegister applies a shift whose amount is the bottom byte of a register.
// An amount of zero leaves value and carry untouched.
func ShiftRegister(t insts.ShiftType, value uint32, amount uint32, carry bool) (uint32, bool) {
	amount &= 0xFF
	if amount == 0 {
		return value, carry
	}
	return shift(t, value, amount, carry)
}

func shift(t insts.ShiftType, value, amount uint32, carry bool) (uint32, bool) {
	switch t {
	case insts.ShiftLSL:
		switch {
		case amount < 32:
			return value << amount, value&(1<<(32-amount)) != 0
		case amount == 32:
			return 0, value&1 != 0
		default:
			return 0, false
		}
	case insts.ShiftLSR:
		switch {
		case amount < 32:
			return value >> amount, value&(1<<(amount-1)) != 0
		case amount == 32:
			return 0, value&0x80000000 != 0
		default:
			return 0, false
		}
	case insts.ShiftASR:
		if amount >= 32 {
			if value&0x80000000 != 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		return uint32(int32(value) >> amount), value&(1<<(amount-1)) != 0
	case insts.ShiftROR:
		amount &= 31
		if amount == 0 {
			return value, value&0x80000000 != 0
		}
		out := bits.RotateLeft32(value, -int(amount))
		return out, out&0x80000000 != 0
	}
	return value, carry
}

// RotateImmediate expands an 8-bit immediate rotated right by rotate bits.
// A non-zero rotation sets the carry out to bit 31 of the result.
func RotateImmediate(imm uint32, rotate uint8, carry bool) (uint32, bool) {
	if rotate == 0 {
		return imm, carry
	}
	out := bits.RotateLeft32(imm, -int(rotate))
	return out, out&0x80000000 != 0
}
