package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/arm7core/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Branch", func() {
		// B #2 -> 0xEA000002
		It("should decode B with a positive offset", func() {
			inst := decoder.Decode(0xEA000002)

			Expect(inst.Format).To(Equal(insts.FormatBranch))
			Expect(inst.Op).To(Equal(insts.OpB))
			Expect(inst.Cond).To(Equal(insts.CondAL))
			Expect(inst.Offset).To(Equal(uint32(2)))
			Expect(inst.BranchOffset()).To(Equal(int32(8)))
		})

		// BL #-2 -> 0xEBFFFFFE
		It("should decode BL and sign-extend the offset", func() {
			inst := decoder.Decode(0xEBFFFFFE)

			Expect(inst.Op).To(Equal(insts.OpBL))
			Expect(inst.Offset).To(Equal(uint32(0xFFFFFE)))
			Expect(inst.BranchOffset()).To(Equal(int32(-8)))
		})

		It("should decode the condition field", func() {
			inst := decoder.Decode(0x0A000000)

			Expect(inst.Op).To(Equal(insts.OpB))
			Expect(inst.Cond).To(Equal(insts.CondEQ))
		})

		It("should decode never-condition branches as branches", func() {
			inst := decoder.Decode(0xFA000000)

			Expect(inst.Op).To(Equal(insts.OpB))
			Expect(inst.Cond).To(Equal(insts.CondNV))
		})
	})

	Describe("Branch and exchange", func() {
		It("should decode BX R0", func() {
			inst := decoder.Decode(0xE12FFF10)

			Expect(inst.Format).To(Equal(insts.FormatBranchExchange))
			Expect(inst.Op).To(Equal(insts.OpBX))
			Expect(inst.Rm).To(Equal(uint8(0)))
		})

		It("should decode BX LR", func() {
			inst := decoder.Decode(0xE12FFF1E)

			Expect(inst.Op).To(Equal(insts.OpBX))
			Expect(inst.Rm).To(Equal(uint8(insts.RegLR)))
		})
	})

	Describe("Data processing", func() {
		// ADD R0, R1, R2 -> 0xE0810002
		It("should decode ADD with a plain register operand", func() {
			inst := decoder.Decode(0xE0810002)

			Expect(inst.Format).To(Equal(insts.FormatDataProcessing))
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.SetFlags).To(BeFalse())
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rn).To(Equal(uint8(1)))
			Expect(inst.Operand.Kind).To(Equal(insts.OperandImmediateShift))
			Expect(inst.Operand.Rm).To(Equal(uint8(2)))
			Expect(inst.Operand.ShiftType).To(Equal(insts.ShiftLSL))
			Expect(inst.Operand.ShiftAmount).To(Equal(uint8(0)))
		})

		// MOVS R0, R1, LSR #32 -> 0xE1B00021
		It("should decode an immediate shift of zero verbatim", func() {
			inst := decoder.Decode(0xE1B00021)

			Expect(inst.Op).To(Equal(insts.OpMOV))
			Expect(inst.SetFlags).To(BeTrue())
			Expect(inst.Operand.ShiftType).To(Equal(insts.ShiftLSR))
			Expect(inst.Operand.ShiftAmount).To(Equal(uint8(0)))
		})

		// MOV R0, R1, LSL R2 -> 0xE1A00211
		It("should decode a register specified shift", func() {
			inst := decoder.Decode(0xE1A00211)

			Expect(inst.Operand.Kind).To(Equal(insts.OperandRegisterShift))
			Expect(inst.Operand.Rm).To(Equal(uint8(1)))
			Expect(inst.Operand.Rs).To(Equal(uint8(2)))
		})

		// MOV R0, #0xFF000000 -> 0xE3A004FF
		It("should decode a rotated immediate", func() {
			inst := decoder.Decode(0xE3A004FF)

			Expect(inst.Operand.Kind).To(Equal(insts.OperandRotatedImmediate))
			Expect(inst.Operand.Imm).To(Equal(uint32(0xFF)))
			Expect(inst.Operand.Rotate).To(Equal(uint8(8)))
			Expect(inst.Operand.RotatedValue()).To(Equal(uint32(0xFF000000)))
		})

		// MOV R0, #1 -> 0xE3A00001
		It("should decode an unrotated immediate", func() {
			inst := decoder.Decode(0xE3A00001)

			Expect(inst.Operand.Kind).To(Equal(insts.OperandImmediate))
			Expect(inst.Operand.RotatedValue()).To(Equal(uint32(1)))
		})

		// CMP R1, #1 -> 0xE3510001
		It("should decode comparisons with S set", func() {
			inst := decoder.Decode(0xE3510001)

			Expect(inst.Op).To(Equal(insts.OpCMP))
			Expect(inst.Rn).To(Equal(uint8(1)))
			Expect(inst.SetFlags).To(BeTrue())
		})

		// TEQP R0, #0 -> 0xE330F000
		It("should accept comparisons naming PC as destination", func() {
			inst := decoder.Decode(0xE330F000)

			Expect(inst.Op).To(Equal(insts.OpTEQ))
			Expect(inst.Rd).To(Equal(uint8(insts.RegPC)))
		})

		It("should map every opcode field to its operation", func() {
			ops := []insts.Op{
				insts.OpAND, insts.OpEOR, insts.OpSUB, insts.OpRSB,
				insts.OpADD, insts.OpADC, insts.OpSBC, insts.OpRSC,
				insts.OpTST, insts.OpTEQ, insts.OpCMP, insts.OpCMN,
				insts.OpORR, insts.OpMOV, insts.OpBIC, insts.OpMVN,
			}
			for code, op := range ops {
				word := uint32(0xE0100000) | uint32(code)<<21
				Expect(decoder.Decode(word).Op).To(Equal(op), "opcode %X", code)
			}
		})
	})

	Describe("Block data transfer", func() {
		// LDMIA R0!, {R1-R3} -> 0xE8B0000E
		It("should decode LDMIA with writeback", func() {
			inst := decoder.Decode(0xE8B0000E)

			Expect(inst.Format).To(Equal(insts.FormatBlockDataTransfer))
			Expect(inst.Op).To(Equal(insts.OpLDM))
			Expect(inst.Load).To(BeTrue())
			Expect(inst.Up).To(BeTrue())
			Expect(inst.PreIndex).To(BeFalse())
			Expect(inst.Writeback).To(BeTrue())
			Expect(inst.ForceUser).To(BeFalse())
			Expect(inst.Rn).To(Equal(uint8(0)))
			Expect(inst.RegisterList).To(Equal(uint16(0x000E)))
			Expect(inst.RegisterCount()).To(Equal(3))
		})

		// STMDB SP!, {R4, LR} -> 0xE92D4010
		It("should decode STMDB (push)", func() {
			inst := decoder.Decode(0xE92D4010)

			Expect(inst.Op).To(Equal(insts.OpSTM))
			Expect(inst.PreIndex).To(BeTrue())
			Expect(inst.Up).To(BeFalse())
			Expect(inst.Rn).To(Equal(uint8(insts.RegSP)))
			Expect(inst.RegisterList).To(Equal(uint16(0x4010)))
		})

		It("should decode the S bit", func() {
			inst := decoder.Decode(0xE8D08000) // LDMIA R0, {PC}^

			Expect(inst.ForceUser).To(BeTrue())
			Expect(inst.RegisterList).To(Equal(uint16(0x8000)))
		})
	})

	Describe("Unrecognized words", func() {
		DescribeTable("should decode to an unknown instruction",
			func(word uint32) {
				inst := decoder.Decode(word)

				Expect(inst.Valid()).To(BeFalse())
				Expect(inst.Op).To(Equal(insts.OpUnknown))
				Expect(inst.Format).To(Equal(insts.FormatUnknown))
				Expect(inst.Word).To(Equal(word))
			},
			Entry("MRS R0, CPSR", uint32(0xE10F0000)),
			Entry("MSR CPSR_fc, R0", uint32(0xE129F000)),
			Entry("TST without S", uint32(0xE1010002)),
			Entry("MOV with a non-zero Rn", uint32(0xE1A10002)),
			Entry("MVN with a non-zero Rn", uint32(0xE1E10002)),
			Entry("MUL R0, R1, R2", uint32(0xE0000291)),
			Entry("SWP R0, R1, [R2]", uint32(0xE1020091)),
			Entry("LDRH R0, [R1]", uint32(0xE1D100B0)),
			Entry("LDR R1, [R0]", uint32(0xE5901000)),
			Entry("SWI #0", uint32(0xEF000000)),
		)
	})
})
