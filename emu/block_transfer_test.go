package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7core/emu"
)

var _ = Describe("Block data transfer", func() {
	var (
		cpu    *emu.CPU
		memory *emu.Memory
		bus    *emu.RecordingBus
		regs   *emu.RegFile
	)

	load := func(word uint32) {
		cpu, memory, bus = newMachine(word)
		regs = cpu.Registers()
	}

	Describe("STM", func() {
		It("should push registers with the first access non-sequential", func() {
			load(0xE92D4010) // STMDB SP!, {R4, LR}
			regs.SetReg(emu.RegSP, 0x2000)
			regs.SetReg(4, 0x44)
			regs.SetReg(emu.RegLR, 0xEE)

			cpu.Step(bus)

			Expect(accesses(bus)[3:]).To(Equal([]string{
				"write4 N 0x00001FF8",
				"write4 S 0x00001FFC",
			}))
			Expect(memory.Read32(0x1FF8, emu.AccessNonSequential)).To(Equal(uint32(0x44)))
			Expect(memory.Read32(0x1FFC, emu.AccessNonSequential)).To(Equal(uint32(0xEE)))
			Expect(regs.Reg(emu.RegSP)).To(Equal(uint32(0x1FF8)))
			Expect(regs.PC()).To(Equal(uint32(0x0C)))
			Expect(cpu.NextAccess()).To(Equal(emu.AccessCode | emu.AccessNonSequential))
		})

		It("should store the original base when it is the first register", func() {
			load(0xE8A00003) // STMIA R0!, {R0, R1}
			regs.SetReg(0, 0x1000)
			regs.SetReg(1, 0xAA)

			cpu.Step(bus)

			Expect(memory.Read32(0x1000, 0)).To(Equal(uint32(0x1000)))
			Expect(memory.Read32(0x1004, 0)).To(Equal(uint32(0xAA)))
			Expect(regs.Reg(0)).To(Equal(uint32(0x1008)))
		})

		It("should store the written back base otherwise", func() {
			load(0xE8A10003) // STMIA R1!, {R0, R1}
			regs.SetReg(0, 0x55)
			regs.SetReg(1, 0x1000)

			cpu.Step(bus)

			Expect(memory.Read32(0x1000, 0)).To(Equal(uint32(0x55)))
			Expect(memory.Read32(0x1004, 0)).To(Equal(uint32(0x1008)))
			Expect(regs.Reg(1)).To(Equal(uint32(0x1008)))
		})

		It("should store PC as address + 12", func() {
			load(0xE8808000) // STMIA R0, {PC}
			regs.SetReg(0, 0x1000)

			cpu.Step(bus)

			Expect(memory.Read32(0x1000, 0)).To(Equal(uint32(0x0C)))
			Expect(regs.Reg(0)).To(Equal(uint32(0x1000)))
		})

		It("should store only PC and move the base by 0x40 for an empty list", func() {
			load(0xE8A00000) // STMIA R0!, {}
			regs.SetReg(0, 0x1000)

			cpu.Step(bus)

			Expect(accesses(bus)[3:]).To(Equal([]string{"write4 N 0x00001000"}))
			Expect(memory.Read32(0x1000, 0)).To(Equal(uint32(0x0C)))
			Expect(regs.Reg(0)).To(Equal(uint32(0x1040)))
		})

		It("should place an empty descending list at the lowest address", func() {
			load(0xE9200000) // STMDB R0!, {}
			regs.SetReg(0, 0x1000)

			cpu.Step(bus)

			Expect(accesses(bus)[3:]).To(Equal([]string{"write4 N 0x00000FC0"}))
			Expect(regs.Reg(0)).To(Equal(uint32(0x0FC0)))
		})

		DescribeTable("should address each mode",
			func(word uint32, first, second string, newBase uint32) {
				load(word)
				regs.SetReg(0, 0x1000)

				cpu.Step(bus)

				Expect(accesses(bus)[3:]).To(Equal([]string{first, second}))
				Expect(regs.Reg(0)).To(Equal(newBase))
			},
			Entry("IA", uint32(0xE8A00006), "write4 N 0x00001000", "write4 S 0x00001004", uint32(0x1008)),
			Entry("IB", uint32(0xE9A00006), "write4 N 0x00001004", "write4 S 0x00001008", uint32(0x1008)),
			Entry("DA", uint32(0xE8200006), "write4 N 0x00000FFC", "write4 S 0x00001000", uint32(0x0FF8)),
			Entry("DB", uint32(0xE9200006), "write4 N 0x00000FF8", "write4 S 0x00000FFC", uint32(0x0FF8)),
		)

		It("should store the user bank with the S bit", func() {
			load(0xE8C04000) // STMIA R0, {LR}^
			regs.SetReg(0, 0x1000)
			regs.SetReg(emu.RegLR, 0x5C)
			regs.SetModeReg(emu.ModeUser, emu.RegLR, 0x50)

			cpu.Step(bus)

			Expect(memory.Read32(0x1000, 0)).To(Equal(uint32(0x50)))
			Expect(regs.Mode()).To(Equal(emu.ModeSupervisor))
		})
	})

	Describe("LDM", func() {
		It("should load registers and end with an idle cycle", func() {
			load(0xE8B0000E) // LDMIA R0!, {R1-R3}
			memory.WriteWords(0x1000, 1, 2, 3)
			regs.SetReg(0, 0x1000)

			cpu.Step(bus)

			Expect(accesses(bus)[3:]).To(Equal([]string{
				"read4 N 0x00001000",
				"read4 S 0x00001004",
				"read4 S 0x00001008",
				"idle",
			}))
			Expect(regs.Reg(1)).To(Equal(uint32(1)))
			Expect(regs.Reg(2)).To(Equal(uint32(2)))
			Expect(regs.Reg(3)).To(Equal(uint32(3)))
			Expect(regs.Reg(0)).To(Equal(uint32(0x100C)))
			Expect(cpu.NextAccess()).To(Equal(emu.AccessCode | emu.AccessNonSequential))
		})

		It("should not write back a base that was loaded", func() {
			load(0xE8B00003) // LDMIA R0!, {R0, R1}
			memory.WriteWords(0x1000, 0x11, 0x22)
			regs.SetReg(0, 0x1000)

			cpu.Step(bus)

			Expect(regs.Reg(0)).To(Equal(uint32(0x11)))
			Expect(regs.Reg(1)).To(Equal(uint32(0x22)))
		})

		It("should load PC alone for an empty list and branch", func() {
			load(0xE8B00000) // LDMIA R0!, {}
			memory.WriteWords(0x1000, 0x300)
			regs.SetReg(0, 0x1000)

			cpu.Step(bus)

			Expect(accesses(bus)[3:]).To(Equal([]string{
				"read4 N 0x00001000",
				"idle",
				"read4 Code|N 0x00000300",
				"read4 Code|S 0x00000304",
			}))
			Expect(regs.Reg(0)).To(Equal(uint32(0x1040)))
			Expect(regs.PC()).To(Equal(uint32(0x308)))
		})

		It("should restore the CPSR when loading PC with the S bit", func() {
			load(0xE8D08000) // LDMIA R0, {PC}^
			memory.WriteWords(0x1000, 0x400)
			regs.SetReg(0, 0x1000)
			regs.SetSavedStatus(0x1F)

			cpu.Step(bus)

			Expect(regs.Mode()).To(Equal(emu.ModeSystem))
			Expect(regs.PC()).To(Equal(uint32(0x408)))
		})

		It("should load the user bank with the S bit and no PC", func() {
			load(0xE8D00100) // LDMIA R0, {R8}^
			memory.WriteWords(0x1000, 0x88)
			regs.SetReg(0, 0x1000)
			regs.SwitchMode(emu.ModeFIQ)

			cpu.Step(bus)

			Expect(regs.Mode()).To(Equal(emu.ModeFIQ))
			Expect(regs.Reg(8)).To(BeZero())
			Expect(regs.ModeReg(emu.ModeUser, 8)).To(Equal(uint32(0x88)))
		})
	})
})
