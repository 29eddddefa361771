package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7core/emu"
)

var _ = Describe("RegFile", func() {
	var regs *emu.RegFile

	BeforeEach(func() {
		regs = emu.NewRegFile()
	})

	It("should reset into Supervisor mode with interrupts disabled", func() {
		Expect(regs.CPSR()).To(Equal(uint32(0xD3)))
		Expect(regs.Mode()).To(Equal(emu.ModeSupervisor))
		Expect(regs.State()).To(Equal(emu.StateARM))
		for i := uint8(0); i < 16; i++ {
			Expect(regs.Reg(i)).To(BeZero())
		}
	})

	It("should round trip every mode and state", func() {
		for _, m := range emu.Modes {
			for _, s := range []emu.ExecState{emu.StateARM, emu.StateThumb} {
				regs.SwitchMode(m)
				regs.SetState(s)

				Expect(regs.Mode()).To(Equal(m))
				Expect(regs.State()).To(Equal(s))

				decoded, err := emu.ModeFromBits(regs.CPSR())
				Expect(err).NotTo(HaveOccurred())
				Expect(decoded).To(Equal(m))
			}
		}
	})

	It("should reject reserved mode patterns", func() {
		_, err := emu.ModeFromBits(0b00000)
		Expect(err).To(MatchError(emu.ErrInvalidMode))

		Expect(func() { regs.SwitchMode(emu.Mode(0b10100)) }).To(Panic())

		regs.SetCPSR(0x00)
		Expect(func() { regs.Mode() }).To(Panic())
	})

	It("should keep flags when switching mode", func() {
		regs.SetFlag(emu.Carry, true)
		regs.SetFlag(emu.Sign, true)

		regs.SwitchMode(emu.ModeIRQ)

		Expect(regs.Flag(emu.Carry)).To(BeTrue())
		Expect(regs.Flag(emu.Sign)).To(BeTrue())
		Expect(regs.Flag(emu.Zero)).To(BeFalse())
		Expect(regs.Flag(emu.Overflow)).To(BeFalse())
	})

	Describe("banking", func() {
		It("should bank R13 and R14 per privileged mode", func() {
			regs.SetReg(emu.RegSP, 0x100)
			regs.SetReg(emu.RegLR, 0x104)

			regs.SwitchMode(emu.ModeIRQ)
			Expect(regs.Reg(emu.RegSP)).To(BeZero())
			regs.SetReg(emu.RegSP, 0x200)

			regs.SwitchMode(emu.ModeUser)
			Expect(regs.Reg(emu.RegSP)).To(BeZero())

			regs.SwitchMode(emu.ModeSupervisor)
			Expect(regs.Reg(emu.RegSP)).To(Equal(uint32(0x100)))
			Expect(regs.Reg(emu.RegLR)).To(Equal(uint32(0x104)))
			Expect(regs.ModeReg(emu.ModeIRQ, emu.RegSP)).To(Equal(uint32(0x200)))
		})

		It("should bank R8 to R14 in FIQ mode only", func() {
			regs.SwitchMode(emu.ModeSystem)
			for i := uint8(0); i < 15; i++ {
				regs.SetReg(i, uint32(i))
			}

			regs.SwitchMode(emu.ModeFIQ)
			for i := uint8(0); i < 8; i++ {
				Expect(regs.Reg(i)).To(Equal(uint32(i)))
			}
			for i := uint8(8); i < 15; i++ {
				Expect(regs.Reg(i)).To(BeZero())
			}
		})

		It("should share the user bank between User and System mode", func() {
			regs.SwitchMode(emu.ModeUser)
			regs.SetReg(emu.RegLR, 0xABCD)

			regs.SwitchMode(emu.ModeSystem)
			Expect(regs.Reg(emu.RegLR)).To(Equal(uint32(0xABCD)))
		})

		It("should never bank R15", func() {
			regs.SetPC(0x0800_0000)
			for _, m := range emu.Modes {
				regs.SwitchMode(m)
				Expect(regs.Reg(emu.RegPC)).To(Equal(uint32(0x0800_0000)))
			}
		})

		It("should panic on an out of range register index", func() {
			Expect(func() { regs.Reg(16) }).To(Panic())
		})
	})

	Describe("saved status", func() {
		It("should keep one SPSR per privileged mode", func() {
			regs.SwitchMode(emu.ModeIRQ)
			regs.SetSavedStatus(0x1F)
			regs.SwitchMode(emu.ModeAbort)
			regs.SetSavedStatus(0x10)

			regs.SwitchMode(emu.ModeIRQ)
			Expect(regs.SavedStatus()).To(Equal(uint32(0x1F)))
			regs.SwitchMode(emu.ModeAbort)
			Expect(regs.SavedStatus()).To(Equal(uint32(0x10)))
		})

		It("should read the CPSR in User and System mode", func() {
			regs.SwitchMode(emu.ModeUser)
			regs.SetSavedStatus(0x1F)

			Expect(regs.SavedStatus()).To(Equal(regs.CPSR()))
			Expect(regs.Mode()).To(Equal(emu.ModeUser))
		})

		It("should restore the CPSR from the SPSR", func() {
			regs.SetSavedStatus(0x6000003F)
			regs.RestoreStatus()

			Expect(regs.Mode()).To(Equal(emu.ModeSystem))
			Expect(regs.State()).To(Equal(emu.StateThumb))
			Expect(regs.Flag(emu.Zero)).To(BeTrue())
			Expect(regs.Flag(emu.Carry)).To(BeTrue())
		})
	})

	It("should copy every bank in and out", func() {
		regs.SwitchMode(emu.ModeFIQ)
		regs.SetReg(10, 0xF10)
		regs.SetSavedStatus(0x13)

		banks := regs.Banks()
		Expect(banks.FIQ[2]).To(Equal(uint32(0xF10)))
		Expect(banks.SPSR[0]).To(Equal(uint32(0x13)))

		other := emu.NewRegFile()
		other.SetBanks(banks)
		Expect(other.Reg(10)).To(Equal(uint32(0xF10)))
		Expect(other.Mode()).To(Equal(emu.ModeFIQ))
	})
})
