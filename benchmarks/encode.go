package benchmarks

// Condition codes used by the encoders.
const (
	CondEQ uint32 = 0x0
	CondNE uint32 = 0x1
	CondAL uint32 = 0xE
)

// Data processing opcodes in encoding order.
const (
	opAND uint32 = iota
	opEOR
	opSUB
	opRSB
	opADD
	opADC
	opSBC
	opRSC
	opTST
	opTEQ
	opCMP
	opCMN
	opORR
	opMOV
	opBIC
	opMVN
)

// Shift types for register operands.
const (
	ShiftLSL uint32 = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// encodeDataProc encodes a data processing instruction.
// Format: cond | 00 | I | opcode | S | Rn | Rd | operand2
func encodeDataProc(opcode uint32, setFlags, immediate bool, rd, rn uint8, operand2 uint32) uint32 {
	inst := CondAL << 28
	if immediate {
		inst |= 1 << 25
	}
	inst |= opcode << 21
	if setFlags {
		inst |= 1 << 20
	}
	inst |= uint32(rn&0xF) << 16
	inst |= uint32(rd&0xF) << 12
	inst |= operand2 & 0xFFF
	return inst
}

// EncodeMOVImm encodes MOV Rd, #imm8.
func EncodeMOVImm(rd uint8, imm uint8) uint32 {
	return encodeDataProc(opMOV, false, true, rd, 0, uint32(imm))
}

// EncodeADDImm encodes ADD/ADDS immediate: Rd = Rn + imm8
func EncodeADDImm(rd, rn uint8, imm uint8, setFlags bool) uint32 {
	return encodeDataProc(opADD, setFlags, true, rd, rn, uint32(imm))
}

// EncodeSUBImm encodes SUB/SUBS immediate: Rd = Rn - imm8
func EncodeSUBImm(rd, rn uint8, imm uint8, setFlags bool) uint32 {
	return encodeDataProc(opSUB, setFlags, true, rd, rn, uint32(imm))
}

// EncodeCMPImm encodes CMP Rn, #imm8.
func EncodeCMPImm(rn uint8, imm uint8) uint32 {
	return encodeDataProc(opCMP, true, true, 0, rn, uint32(imm))
}

// EncodeADDReg encodes ADD register: Rd = Rn + Rm
func EncodeADDReg(rd, rn, rm uint8) uint32 {
	return encodeDataProc(opADD, false, false, rd, rn, uint32(rm&0xF))
}

// EncodeEORReg encodes EOR register: Rd = Rn ^ Rm
func EncodeEORReg(rd, rn, rm uint8) uint32 {
	return encodeDataProc(opEOR, false, false, rd, rn, uint32(rm&0xF))
}

// registerShift builds a register specified shift operand: Rm, shift Rs.
func registerShift(rm uint8, shift uint32, rs uint8) uint32 {
	return uint32(rs&0xF)<<8 | (shift&3)<<5 | 1<<4 | uint32(rm&0xF)
}

// EncodeMOVRegShift encodes MOV Rd, Rm, shift Rs.
func EncodeMOVRegShift(rd, rm uint8, shift uint32, rs uint8) uint32 {
	return encodeDataProc(opMOV, false, false, rd, 0, registerShift(rm, shift, rs))
}

// EncodeADDRegShift encodes ADD Rd, Rn, Rm, shift Rs.
func EncodeADDRegShift(rd, rn, rm uint8, shift uint32, rs uint8) uint32 {
	return encodeDataProc(opADD, false, false, rd, rn, registerShift(rm, shift, rs))
}

// EncodeB encodes a conditional branch. The offset is relative to the
// branch address + 8.
func EncodeB(cond uint32, offset int32) uint32 {
	return cond<<28 | 0xA<<24 | uint32(offset>>2)&0xFFFFFF
}

// EncodeBL encodes branch with link: BL offset
func EncodeBL(offset int32) uint32 {
	return CondAL<<28 | 0xB<<24 | uint32(offset>>2)&0xFFFFFF
}

// EncodeBX encodes BX Rm.
func EncodeBX(rm uint8) uint32 {
	return 0xE12FFF10 | uint32(rm&0xF)
}

// EncodeHalt encodes the branch to itself that ends every program.
func EncodeHalt() uint32 {
	return EncodeB(CondAL, -8)
}

// EncodeBlock encodes LDM/STM.
// Format: cond | 100 | P | U | S | W | L | Rn | list
func EncodeBlock(load bool, rn uint8, list uint16, pre, up, writeback bool) uint32 {
	inst := CondAL<<28 | 0x4<<25
	if pre {
		inst |= 1 << 24
	}
	if up {
		inst |= 1 << 23
	}
	if writeback {
		inst |= 1 << 21
	}
	if load {
		inst |= 1 << 20
	}
	inst |= uint32(rn&0xF) << 16
	inst |= uint32(list)
	return inst
}
