package insts

// Decoder decodes ARM-state machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new ARM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit ARM instruction word. It never touches processor
// state. Words that match no supported encoding return an Instruction with
// Op == OpUnknown and Format == FormatUnknown.
//
// The recognizers are mutually exclusive, the order below only mirrors the
// ARM7TDMI data sheet.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Op:     OpUnknown,
		Format: FormatUnknown,
		Cond:   CondFromWord(word),
		Word:   word,
	}

	switch {
	case d.isBranchExchange(word):
		d.decodeBranchExchange(word, inst)
	case d.isBranch(word):
		d.decodeBranch(word, inst)
	case d.isBlockDataTransfer(word):
		d.decodeBlockDataTransfer(word, inst)
	case d.isDataProcessing(word):
		if !d.decodeDataProcessing(word, inst) {
			inst.Op = OpUnknown
			inst.Format = FormatUnknown
		}
	}

	return inst
}

// isBranchExchange checks for BX.
// Format: cond | 0001 0010 1111 1111 1111 0001 | Rm
func (d *Decoder) isBranchExchange(word uint32) bool {
	return word&0x0FFFFFF0 == 0x012FFF10
}

func (d *Decoder) decodeBranchExchange(word uint32, inst *Instruction) {
	inst.Format = FormatBranchExchange
	inst.Op = OpBX
	inst.Rm = uint8(word & 0xF)
}

// isBranch checks for B and BL: bits [27:25] == 0b101.
func (d *Decoder) isBranch(word uint32) bool {
	return word&0x0E000000 == 0x0A000000
}

// decodeBranch decodes B and BL.
// Format: cond | 101 | L | offset24
func (d *Decoder) decodeBranch(word uint32, inst *Instruction) {
	inst.Format = FormatBranch
	inst.Offset = word & 0x00FFFFFF

	if word&(1<<24) == 0 {
		inst.Op = OpB
	} else {
		inst.Op = OpBL
	}
}

// isBlockDataTransfer checks for LDM and STM: bits [27:25] == 0b100.
func (d *Decoder) isBlockDataTransfer(word uint32) bool {
	return word&0x0E000000 == 0x08000000
}

// decodeBlockDataTransfer decodes LDM and STM.
// Format: cond | 100 | P | U | S | W | L | Rn | register list
func (d *Decoder) decodeBlockDataTransfer(word uint32, inst *Instruction) {
	inst.Format = FormatBlockDataTransfer

	inst.PreIndex = word&(1<<24) != 0
	inst.Up = word&(1<<23) != 0
	inst.ForceUser = word&(1<<22) != 0
	inst.Writeback = word&(1<<21) != 0
	inst.Load = word&(1<<20) != 0
	inst.Rn = uint8((word >> 16) & 0xF)
	inst.RegisterList = uint16(word & 0xFFFF)

	if inst.Load {
		inst.Op = OpLDM
	} else {
		inst.Op = OpSTM
	}
}

// isDataProcessing checks for the data processing class: bits [27:26] == 0b00.
// Field validation happens in decodeDataProcessing.
func (d *Decoder) isDataProcessing(word uint32) bool {
	return word&0x0C000000 == 0
}

// decodeDataProcessing decodes the ALU instructions and reports whether the
// word is a well formed data processing encoding.
// Format: cond | 00 | I | opcode | S | Rn | Rd | operand2
func (d *Decoder) decodeDataProcessing(word uint32, inst *Instruction) bool {
	immediate := word&(1<<25) != 0
	op := dataProcessingOp((word >> 21) & 0xF)
	setFlags := word&(1<<20) != 0
	rn := uint8((word >> 16) & 0xF)
	rd := uint8((word >> 12) & 0xF)

	// TST, TEQ, CMP and CMN without S are the PSR transfer and BX space.
	if op.IsComparison() && !setFlags {
		return false
	}

	// Rd is should-be-zero for the comparisons (0b0000, or 0b1111 for the
	// legacy P forms). The hardware ignores the field, so any value decodes.

	if (op == OpMOV || op == OpMVN) && rn != 0 {
		return false
	}

	var operand Operand
	if immediate {
		operand.Imm = word & 0xFF
		operand.Rotate = uint8((word>>8)&0xF) * 2
		if operand.Rotate == 0 {
			operand.Kind = OperandImmediate
		} else {
			operand.Kind = OperandRotatedImmediate
		}
	} else {
		operand.Rm = uint8(word & 0xF)
		operand.ShiftType = ShiftType((word >> 5) & 0x3)

		if word&(1<<4) != 0 {
			// Bit 7 set with bit 4 set is the multiply and halfword
			// transfer space.
			if word&(1<<7) != 0 {
				return false
			}
			operand.Kind = OperandRegisterShift
			operand.Rs = uint8((word >> 8) & 0xF)
		} else {
			operand.Kind = OperandImmediateShift
			operand.ShiftAmount = uint8((word >> 7) & 0x1F)
		}
	}

	inst.Format = FormatDataProcessing
	inst.Op = op
	inst.SetFlags = setFlags
	inst.Rn = rn
	inst.Rd = rd
	inst.Operand = operand
	inst.Rm = operand.Rm

	return true
}

// dataProcessingOp maps the 4-bit opcode field to an operation.
func dataProcessingOp(bits uint32) Op {
	switch bits & 0xF {
	case 0x0:
		return OpAND
	case 0x1:
		return OpEOR
	case 0x2:
		return OpSUB
	case 0x3:
		return OpRSB
	case 0x4:
		return OpADD
	case 0x5:
		return OpADC
	case 0x6:
		return OpSBC
	case 0x7:
		return OpRSC
	case 0x8:
		return OpTST
	case 0x9:
		return OpTEQ
	case 0xA:
		return OpCMP
	case 0xB:
		return OpCMN
	case 0xC:
		return OpORR
	case 0xD:
		return OpMOV
	case 0xE:
		return OpBIC
	case 0xF:
		return OpMVN
	}
	panic("insts: opcode field wider than 4 bits")
}
