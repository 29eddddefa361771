package emu

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/arm7core/insts"
)

// Compute evaluates a data processing operation on its two operands.
//
// Arithmetic operations return their own carry and overflow. Logical
// operations return shifterCarry as carry and leave overflow at overflowIn.
// carryIn is the current C flag, consumed by ADC, SBC and RSC.
func Compute(op insts.Op, a, b uint32, shifterCarry, carryIn, overflowIn bool) (result uint32, carry, overflow bool) {
	switch op {
	case insts.OpAND, insts.OpTST:
		return a & b, shifterCarry, overflowIn
	case insts.OpEOR, insts.OpTEQ:
		return a ^ b, shifterCarry, overflowIn
	case insts.OpORR:
		return a | b, shifterCarry, overflowIn
	case insts.OpMOV:
		return b, shifterCarry, overflowIn
	case insts.OpBIC:
		return a &^ b, shifterCarry, overflowIn
	case insts.OpMVN:
		return ^b, shifterCarry, overflowIn
	case insts.OpADD, insts.OpCMN:
		return add(a, b, false)
	case insts.OpADC:
		return add(a, b, carryIn)
	case insts.OpSUB, insts.OpCMP:
		return sub(a, b, true)
	case insts.OpSBC:
		return sub(a, b, carryIn)
	case insts.OpRSB:
		return sub(b, a, true)
	case insts.OpRSC:
		return sub(b, a, carryIn)
	}
	panic(fmt.Sprintf("emu: %s is not an ALU operation", op))
}

// add returns a + b + carryIn with the unsigned carry and signed overflow.
func add(a, b uint32, carryIn bool) (uint32, bool, bool) {
	var cin uint32
	if carryIn {
		cin = 1
	}
	result, cout := bits.Add32(a, b, cin)
	overflow := (^(a ^ b) & (a ^ result) & 0x80000000) != 0
	return result, cout != 0, overflow
}

// sub returns a - b - !carryIn. The carry is set when no borrow occurs.
func sub(a, b uint32, carryIn bool) (uint32, bool, bool) {
	var borrow uint32
	if !carryIn {
		borrow = 1
	}
	result, bout := bits.Sub32(a, b, borrow)
	overflow := ((a ^ b) & (a ^ result) & 0x80000000) != 0
	return result, bout == 0, overflow
}
