package emu

import "github.com/sarchlab/arm7core/insts"

// executeBranch runs B and BL. R15 holds the instruction address + 8, so the
// link value R15 - 4 is the address of the following instruction.
func (c *CPU) executeBranch(inst *insts.Instruction, bus Bus) {
	r := c.regs

	if inst.Op == insts.OpBL {
		r.SetReg(RegLR, r.PC()-4)
	}

	r.SetPC(r.PC() + uint32(inst.BranchOffset()))
	c.reload32(bus)
}

// executeBranchExchange runs BX. Bit 0 of the target selects Thumb state.
func (c *CPU) executeBranchExchange(inst *insts.Instruction, bus Bus) {
	r := c.regs
	target := r.Reg(inst.Rm)

	if target&1 != 0 {
		r.SetPC(target &^ 1)
		r.SetState(StateThumb)
		c.reload16(bus)
		return
	}

	r.SetPC(target)
	c.reload32(bus)
}
