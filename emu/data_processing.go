package emu

import "github.com/sarchlab/arm7core/insts"

// operand2 resolves the second operand and the shifter carry out.
func (c *CPU) operand2(o insts.Operand, carry bool) (uint32, bool) {
	r := c.regs

	switch o.Kind {
	case insts.OperandImmediate:
		return o.Imm, carry
	case insts.OperandRotatedImmediate:
		return RotateImmediate(o.Imm, o.Rotate, carry)
	case insts.OperandImmediateShift:
		return ShiftImmediate(o.ShiftType, r.Reg(o.Rm), o.ShiftAmount, carry)
	case insts.OperandRegisterShift:
		return ShiftRegister(o.ShiftType, r.Reg(o.Rm), r.Reg(o.Rs), carry)
	}
	panic("emu: invalid operand kind")
}

// executeDataProcessing runs the sixteen ALU operations.
//
// A register specified shift takes one extra internal cycle: R15 moves on
// before the operands are read, so PC operands read as address + 12, and the
// next fetch is non-sequential.
func (c *CPU) executeDataProcessing(inst *insts.Instruction, bus Bus) {
	r := c.regs

	registerShift := inst.Operand.Kind == insts.OperandRegisterShift
	if registerShift {
		r.AdvancePC(4)
		bus.Idle()
	}

	carry := r.Flag(Carry)
	op2, shifterCarry := c.operand2(inst.Operand, carry)
	op1 := r.Reg(inst.Rn)

	result, carryOut, overflow := Compute(inst.Op, op1, op2, shifterCarry, carry, r.Flag(Overflow))

	if inst.SetFlags {
		r.SetNZ(result)
		r.SetFlag(Carry, carryOut)
		r.SetFlag(Overflow, overflow)
		if inst.Rd == RegPC {
			// User and System mode have no SPSR, so the new flags stay.
			r.RestoreStatus()
		}
	}

	if !inst.Op.IsComparison() {
		r.SetReg(inst.Rd, result)
		if inst.Rd == RegPC {
			c.reload(bus)
			return
		}
	}

	if registerShift {
		c.nextAccess = AccessCode | AccessNonSequential
		return
	}
	c.advance()
}
