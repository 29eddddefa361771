package emu_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/arm7core/emu"
)

var _ = Describe("CPU", func() {
	Describe("NewCPU", func() {
		It("should start in the reset state with an empty pipeline", func() {
			cpu := emu.NewCPU()

			Expect(cpu.Registers().CPSR()).To(Equal(uint32(0xD3)))
			Expect(cpu.State()).To(Equal(emu.StateARM))
			Expect(cpu.Pipeline()).To(Equal([2]uint32{}))
			Expect(cpu.NextAccess()).To(Equal(emu.AccessCode | emu.AccessNonSequential))
			Expect(cpu.ExecutionAddress()).To(BeZero())
		})

		It("should begin fetching at the entry point", func() {
			memory := emu.NewMemory()
			memory.WriteWords(0x100, 0xE3A00005) // MOV R0, #5
			cpu := emu.NewCPU(emu.WithEntryPoint(0x100))

			result := cpu.Step(memory)

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Address).To(Equal(uint32(0x100)))
			Expect(cpu.Registers().Reg(0)).To(Equal(uint32(5)))
		})
	})

	Describe("Step", func() {
		It("should run a branch end to end", func() {
			// B #2 at address 0 jumps to 0x10.
			cpu, _, bus := newMachine(0xEA000002)

			result := cpu.Step(bus)

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Executed).To(BeTrue())
			Expect(result.Address).To(BeZero())
			Expect(accesses(bus)).To(Equal([]string{
				"read4 Code|N 0x00000000",
				"read4 Code|S 0x00000004",
				"read4 Code|S 0x00000008",
				"read4 Code|N 0x00000010",
				"read4 Code|S 0x00000014",
			}))
			// The reload fetches the target and the word after it.
			Expect(accesses(bus)[3:]).To(Equal([]string{
				"read4 Code|N 0x00000010",
				"read4 Code|S 0x00000014",
			}))
			Expect(cpu.Registers().PC()).To(Equal(uint32(0x18)))
			Expect(cpu.ExecutionAddress()).To(Equal(uint32(0x10)))
			Expect(cpu.NextAccess()).To(Equal(emu.AccessCode | emu.AccessSequential))
		})

		It("should fetch sequentially between non-branching instructions", func() {
			cpu, _, bus := newMachine(
				0xE3A00001, // MOV R0, #1
				0xE2800001, // ADD R0, R0, #1
			)

			cpu.Step(bus)
			bus.Reset()
			cpu.Step(bus)

			Expect(accesses(bus)).To(Equal([]string{"read4 Code|S 0x0000000C"}))
			Expect(cpu.Registers().Reg(0)).To(Equal(uint32(2)))
			Expect(cpu.Registers().PC()).To(Equal(uint32(0x10)))
		})

		It("should skip instructions whose condition fails", func() {
			cpu, _, bus := newMachine(0x03A00001) // MOVEQ R0, #1

			result := cpu.Step(bus)

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Executed).To(BeFalse())
			Expect(cpu.Registers().Reg(0)).To(BeZero())
			Expect(cpu.Registers().PC()).To(Equal(uint32(0x0C)))
			Expect(cpu.NextAccess()).To(Equal(emu.AccessCode | emu.AccessSequential))
		})

		It("should never execute the NV condition", func() {
			cpu, _, bus := newMachine(0xFA000010) // B with condition NV

			result := cpu.Step(bus)

			Expect(result.Executed).To(BeFalse())
			Expect(cpu.Registers().PC()).To(Equal(uint32(0x0C)))
		})

		It("should report unknown instructions and move on", func() {
			out := &bytes.Buffer{}
			logger := logrus.New()
			logger.SetOutput(out)

			memory := emu.NewMemory()
			memory.WriteWords(0, 0xE10F0000) // MRS R0, CPSR
			cpu := emu.NewCPU(emu.WithLogger(logger))

			before := cpu.Registers().CPSR()
			result := cpu.Step(memory)

			Expect(result.Err).To(MatchError(emu.ErrUnknownInstruction))
			Expect(result.Executed).To(BeFalse())
			Expect(cpu.Registers().PC()).To(Equal(uint32(0x0C)))
			Expect(cpu.Registers().CPSR()).To(Equal(before))
			Expect(cpu.NextAccess()).To(Equal(emu.AccessCode | emu.AccessSequential))
			Expect(out.String()).To(ContainSubstring("unknown instruction"))
			Expect(out.String()).To(ContainSubstring("0xE10F0000"))
		})

		It("should refuse to run in Thumb state", func() {
			cpu := emu.NewCPU()
			cpu.Registers().SetState(emu.StateThumb)

			result := cpu.Step(emu.NewMemory())

			Expect(result.Err).To(MatchError(emu.ErrThumbUnsupported))
		})

		It("should stop at the instruction limit", func() {
			memory := emu.NewMemory()
			cpu := emu.NewCPU(emu.WithMaxInstructions(1))

			Expect(cpu.Step(memory).Err).NotTo(HaveOccurred())
			Expect(cpu.Step(memory).Err).To(MatchError(emu.ErrMaxInstructions))
			Expect(cpu.InstructionCount()).To(Equal(uint64(1)))
		})

		It("should reload after a jump", func() {
			cpu, memory, bus := newMachine(0xE3A00001)
			memory.WriteWords(0x200, 0xE3A00007) // MOV R0, #7

			cpu.Step(bus)
			cpu.Jump(0x200)
			result := cpu.Step(bus)

			Expect(result.Address).To(Equal(uint32(0x200)))
			Expect(cpu.Registers().Reg(0)).To(Equal(uint32(7)))
		})
	})

	Describe("Branch", func() {
		It("should branch backwards", func() {
			// B #-2 at 8 branches to itself.
			cpu, _, bus := newMachine(0xE1A00000, 0xE1A00000, 0xEAFFFFFE)

			Expect(cpu.Step(bus).SelfLoop()).To(BeFalse())
			cpu.Step(bus)
			Expect(cpu.Step(bus).SelfLoop()).To(BeTrue())

			Expect(cpu.ExecutionAddress()).To(Equal(uint32(8)))
		})

		It("should store the return address on BL", func() {
			cpu, _, bus := newMachine(0xEB000002) // BL #2

			cpu.Step(bus)

			Expect(cpu.Registers().Reg(emu.RegLR)).To(Equal(uint32(4)))
			Expect(cpu.ExecutionAddress()).To(Equal(uint32(0x10)))
		})

		It("should exchange to Thumb state on an odd target", func() {
			cpu, _, bus := newMachine(0xE12FFF10) // BX R0
			cpu.Registers().SetReg(0, 0x201)

			cpu.Step(bus)

			Expect(cpu.State()).To(Equal(emu.StateThumb))
			Expect(cpu.Registers().PC()).To(Equal(uint32(0x204)))
			Expect(cpu.ExecutionAddress()).To(Equal(uint32(0x200)))
			Expect(accesses(bus)[3:]).To(Equal([]string{
				"read2 Code|N 0x00000200",
				"read2 Code|S 0x00000202",
			}))
			Expect(cpu.Step(bus).Err).To(MatchError(emu.ErrThumbUnsupported))
		})

		It("should stay in ARM state on an even target", func() {
			cpu, _, bus := newMachine(0xE12FFF1E) // BX LR
			cpu.Registers().SetReg(emu.RegLR, 0x200)

			cpu.Step(bus)

			Expect(cpu.State()).To(Equal(emu.StateARM))
			Expect(cpu.Registers().PC()).To(Equal(uint32(0x208)))
		})
	})

	Describe("Data processing", func() {
		It("should set carry and zero on an unsigned wrap", func() {
			cpu, _, bus := newMachine(0xE0910002) // ADDS R0, R1, R2
			regs := cpu.Registers()
			regs.SetReg(1, 0xFFFFFFFF)
			regs.SetReg(2, 1)

			cpu.Step(bus)

			Expect(regs.Reg(0)).To(BeZero())
			Expect(regs.Flag(emu.Zero)).To(BeTrue())
			Expect(regs.Flag(emu.Carry)).To(BeTrue())
			Expect(regs.Flag(emu.Sign)).To(BeFalse())
			Expect(regs.Flag(emu.Overflow)).To(BeFalse())
		})

		It("should treat LSR #0 as a shift by 32", func() {
			cpu, _, bus := newMachine(0xE1B00021) // MOVS R0, R1, LSR #32
			regs := cpu.Registers()
			regs.SetReg(0, 0x1234)
			regs.SetReg(1, 0x80000000)

			cpu.Step(bus)

			Expect(regs.Reg(0)).To(BeZero())
			Expect(regs.Flag(emu.Carry)).To(BeTrue())
			Expect(regs.Flag(emu.Zero)).To(BeTrue())
		})

		It("should leave flags alone without S", func() {
			cpu, _, bus := newMachine(0xE0810002) // ADD R0, R1, R2
			regs := cpu.Registers()
			regs.SetReg(1, 0xFFFFFFFF)
			regs.SetReg(2, 1)

			cpu.Step(bus)

			Expect(regs.Reg(0)).To(BeZero())
			Expect(regs.CPSR()).To(Equal(uint32(0xD3)))
		})

		It("should only update flags for comparisons", func() {
			cpu, _, bus := newMachine(0xE3510001) // CMP R1, #1
			regs := cpu.Registers()
			regs.SetReg(0, 0xAA)
			regs.SetReg(1, 1)

			cpu.Step(bus)

			Expect(regs.Reg(0)).To(Equal(uint32(0xAA)))
			Expect(regs.Flag(emu.Zero)).To(BeTrue())
			Expect(regs.Flag(emu.Carry)).To(BeTrue())
		})

		It("should read PC as address + 12 with a register shift", func() {
			cpu, _, bus := newMachine(0xE1A0021F) // MOV R0, PC, LSL R2

			cpu.Step(bus)

			Expect(cpu.Registers().Reg(0)).To(Equal(uint32(0x0C)))
			Expect(cpu.Registers().PC()).To(Equal(uint32(0x0C)))
			Expect(cpu.NextAccess()).To(Equal(emu.AccessCode | emu.AccessNonSequential))
			Expect(accesses(bus)[3]).To(Equal("idle"))

			bus.Reset()
			cpu.Step(bus)
			Expect(accesses(bus)[0]).To(Equal("read4 Code|N 0x0000000C"))
		})

		It("should read PC as address + 8 otherwise", func() {
			cpu, _, bus := newMachine(0xE1A0000F) // MOV R0, PC

			cpu.Step(bus)

			Expect(cpu.Registers().Reg(0)).To(Equal(uint32(8)))
		})

		It("should branch when writing PC", func() {
			cpu, _, bus := newMachine(0xE3A0FC01) // MOV PC, #0x100

			cpu.Step(bus)

			Expect(cpu.Registers().PC()).To(Equal(uint32(0x108)))
			Expect(accesses(bus)[3:]).To(Equal([]string{
				"read4 Code|N 0x00000100",
				"read4 Code|S 0x00000104",
			}))
		})

		It("should restore the CPSR when writing PC with S", func() {
			cpu, _, bus := newMachine(0xE1B0F00E) // MOVS PC, LR
			regs := cpu.Registers()
			regs.SwitchMode(emu.ModeIRQ)
			regs.SetSavedStatus(0x6000001F)
			regs.SetReg(emu.RegLR, 0x100)

			cpu.Step(bus)

			Expect(regs.CPSR()).To(Equal(uint32(0x6000001F)))
			Expect(regs.Mode()).To(Equal(emu.ModeSystem))
			Expect(regs.PC()).To(Equal(uint32(0x108)))
		})

		It("should restore the CPSR without branching for comparisons", func() {
			cpu, _, bus := newMachine(0xE330F000) // TEQP R0, #0
			regs := cpu.Registers()
			regs.SetSavedStatus(0x8000001F)

			cpu.Step(bus)

			Expect(regs.CPSR()).To(Equal(uint32(0x8000001F)))
			Expect(regs.PC()).To(Equal(uint32(0x0C)))
		})

		It("should keep the new flags for a comparison into PC in System mode", func() {
			cpu, _, bus := newMachine(0xE130F000) // TEQ R0, R0 with Rd = PC
			regs := cpu.Registers()
			regs.SwitchMode(emu.ModeSystem)

			cpu.Step(bus)

			Expect(regs.Mode()).To(Equal(emu.ModeSystem))
			Expect(regs.Flag(emu.Zero)).To(BeTrue())
			Expect(regs.PC()).To(Equal(uint32(0x0C)))
		})

		It("should keep the new flags for MOVS PC in User mode", func() {
			cpu, _, bus := newMachine(0xE1B0F001) // MOVS PC, R1
			regs := cpu.Registers()
			regs.SwitchMode(emu.ModeUser)
			regs.SetReg(1, 0x80000100)

			cpu.Step(bus)

			Expect(regs.Mode()).To(Equal(emu.ModeUser))
			Expect(regs.Flag(emu.Sign)).To(BeTrue())
			Expect(regs.Flag(emu.Zero)).To(BeFalse())
			Expect(regs.PC()).To(Equal(uint32(0x80000108)))
		})
	})

	Describe("tracing", func() {
		It("should record every retired slot", func() {
			buf := emu.NewTraceBuffer(0)
			memory := emu.NewMemory()
			memory.WriteWords(0,
				0xE3A00001, // MOV R0, #1
				0x03A00002, // MOVEQ R0, #2
			)
			cpu := emu.NewCPU(emu.WithTraceSink(buf))

			cpu.Step(memory)
			cpu.Step(memory)

			entries := buf.Entries()
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].String()).To(Equal("00000000: E3A00001  MOV R0, #0x1"))
			Expect(entries[1].Executed).To(BeFalse())
			Expect(entries[1].String()).To(HaveSuffix("(skipped)"))
		})
	})

	Describe("Snapshot", func() {
		It("should restore a captured state", func() {
			cpu, _, bus := newMachine(0xE3A00001, 0xE3A00002)
			cpu.Step(bus)
			saved := cpu.Snapshot()

			cpu.Step(bus)
			Expect(cpu.Registers().Reg(0)).To(Equal(uint32(2)))

			cpu.Restore(saved)
			Expect(cpu.Snapshot()).To(Equal(saved))
			Expect(cpu.Registers().Reg(0)).To(Equal(uint32(1)))
			Expect(cpu.Pipeline()[0]).To(Equal(uint32(0xE3A00002)))
		})
	})
})
