package emu

import (
	"math/bits"

	"github.com/sarchlab/arm7core/insts"
)

// emptyListBytes is how far an empty register list moves the base.
const emptyListBytes = 0x40

// executeBlockDataTransfer runs LDM and STM.
//
// Registers are transferred lowest first to the lowest address. Descending
// modes are run as ascending ones starting at the final base. The first
// access is non-sequential, the rest sequential. An empty list transfers R15
// alone and moves the base by 0x40, as ARMv4 hardware does, so the address
// of that transfer is not the one a list holding only R15 would use.
func (c *CPU) executeBlockDataTransfer(inst *insts.Instruction, bus Bus) {
	r := c.regs

	base := r.Reg(inst.Rn)
	list := inst.RegisterList
	bytes := uint32(bits.OnesCount16(list)) * 4
	if list == 0 {
		list = 1 << RegPC
		bytes = emptyListBytes
	}
	pcInList := list&(1<<RegPC) != 0
	firstReg := uint8(bits.TrailingZeros16(list))

	mode := r.Mode()
	if inst.ForceUser && (!inst.Load || !pcInList) {
		mode = ModeUser
	}

	pre := inst.PreIndex
	address := base
	var newBase uint32
	if inst.Up {
		newBase = base + bytes
	} else {
		newBase = base - bytes
		address = newBase
		pre = !pre
	}

	r.AdvancePC(4)

	kind := AccessNonSequential
	for i := uint8(0); i < 16; i++ {
		if list&(1<<i) == 0 {
			continue
		}

		if pre {
			address += 4
		}

		if inst.Load {
			r.SetModeReg(mode, i, bus.Read32(address, kind))
		} else {
			v := r.ModeReg(mode, i)
			if i == inst.Rn && inst.Writeback {
				if i == firstReg {
					v = base
				} else {
					v = newBase
				}
			}
			bus.Write32(address, v, kind)
		}

		if !pre {
			address += 4
		}
		kind = AccessSequential
	}

	if inst.Load {
		bus.Idle()
	}

	if inst.Writeback && !(inst.Load && list&(1<<inst.Rn) != 0) {
		r.SetReg(inst.Rn, newBase)
	}

	if inst.Load && pcInList {
		if inst.ForceUser {
			r.RestoreStatus()
		}
		c.reload(bus)
		return
	}

	c.nextAccess = AccessCode | AccessNonSequential
}
