// Package insts provides ARMv4 (ARM7TDMI) instruction definitions and decoding.
//
// This package implements decoding of 32-bit ARM-state machine code into
// structured instruction representations. It supports:
//   - Branch instructions: B, BL
//   - Branch and exchange: BX
//   - Data Processing: AND, EOR, SUB, RSB, ADD, ADC, SBC, RSC, TST, TEQ, CMP,
//     CMN, ORR, MOV, BIC, MVN with immediate, rotated immediate, immediate
//     shifted register and register shifted register operands
//   - Block Data Transfer: LDM, STM
//
// Decoding is a pure function of the instruction word. Words that match none
// of the supported encodings decode to an Instruction with FormatUnknown.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0xE0810002) // ADD R0, R1, R2
//	fmt.Println(insts.Disassemble(inst))
package insts

// Op represents an ARM operation.
type Op uint8

// ARM operations. The sixteen data processing operations are listed in
// encoding order but do not share their numeric values with the encoding.
const (
	OpUnknown Op = iota
	OpB
	OpBL
	OpBX
	OpAND
	OpEOR
	OpSUB
	OpRSB
	OpADD
	OpADC
	OpSBC
	OpRSC
	OpTST
	OpTEQ
	OpCMP
	OpCMN
	OpORR
	OpMOV
	OpBIC
	OpMVN
	OpLDM
	OpSTM
)

var opNames = map[Op]string{
	OpUnknown: "???",
	OpB:       "B",
	OpBL:      "BL",
	OpBX:      "BX",
	OpAND:     "AND",
	OpEOR:     "EOR",
	OpSUB:     "SUB",
	OpRSB:     "RSB",
	OpADD:     "ADD",
	OpADC:     "ADC",
	OpSBC:     "SBC",
	OpRSC:     "RSC",
	OpTST:     "TST",
	OpTEQ:     "TEQ",
	OpCMP:     "CMP",
	OpCMN:     "CMN",
	OpORR:     "ORR",
	OpMOV:     "MOV",
	OpBIC:     "BIC",
	OpMVN:     "MVN",
	OpLDM:     "LDM",
	OpSTM:     "STM",
}

// String returns the assembler mnemonic of the operation.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "???"
}

// IsComparison reports whether the operation only updates flags (TST, TEQ,
// CMP, CMN) and never writes its destination register.
func (op Op) IsComparison() bool {
	switch op {
	case OpTST, OpTEQ, OpCMP, OpCMN:
		return true
	}
	return false
}

// IsArithmetic reports whether the ALU computes carry and overflow for the
// operation.
func (op Op) IsArithmetic() bool {
	switch op {
	case OpADD, OpADC, OpSUB, OpSBC, OpRSB, OpRSC, OpCMP, OpCMN:
		return true
	}
	return false
}

// IsDataProcessing reports whether op is one of the sixteen ALU operations.
func (op Op) IsDataProcessing() bool {
	return op >= OpAND && op <= OpMVN
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown           Format = iota
	FormatBranch                   // B, BL
	FormatBranchExchange           // BX
	FormatDataProcessing           // ALU operations
	FormatBlockDataTransfer        // LDM, STM
)

// Cond represents an ARM condition code (bits [31:28]).
type Cond uint8

// ARM condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not equal (Z == 0)
	CondCS Cond = 0b0010 // Carry set (C == 1)
	CondCC Cond = 0b0011 // Carry clear (C == 0)
	CondMI Cond = 0b0100 // Minus (N == 1)
	CondPL Cond = 0b0101 // Plus (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher (C == 1 && Z == 0)
	CondLS Cond = 0b1001 // Unsigned lower or same (C == 0 || Z == 1)
	CondGE Cond = 0b1010 // Greater or equal (N == V)
	CondLT Cond = 0b1011 // Less than (N != V)
	CondGT Cond = 0b1100 // Greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Less or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always
	CondNV Cond = 0b1111 // Never
)

var condNames = [16]string{
	"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC",
	"HI", "LS", "GE", "LT", "GT", "LE", "AL", "NV",
}

// String returns the two letter condition suffix.
func (c Cond) String() string {
	return condNames[c&0xF]
}

// CondFromWord extracts the condition field of an instruction word.
func CondFromWord(word uint32) Cond {
	return Cond(word >> 28)
}

// ShiftType represents a barrel shifter operation.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right (RRX when the immediate amount is 0)
)

var shiftNames = [4]string{"LSL", "LSR", "ASR", "ROR"}

// String returns the assembler name of the shift.
func (s ShiftType) String() string {
	return shiftNames[s&0x3]
}

// OperandKind selects how the second operand of a data processing
// instruction is produced.
type OperandKind uint8

// Second operand kinds.
const (
	// OperandImmediate is an 8-bit immediate with no rotation.
	OperandImmediate OperandKind = iota
	// OperandRotatedImmediate is an 8-bit immediate rotated right by an even amount.
	OperandRotatedImmediate
	// OperandImmediateShift is Rm shifted by a 5-bit immediate amount.
	OperandImmediateShift
	// OperandRegisterShift is Rm shifted by the bottom byte of Rs.
	OperandRegisterShift
)

// Operand is the second operand of a data processing instruction.
type Operand struct {
	Kind OperandKind

	// Imm is the unrotated 8-bit immediate.
	Imm uint32
	// Rotate is the right rotation applied to Imm (0-30, always even).
	Rotate uint8

	// Rm is the register holding the value to be shifted.
	Rm uint8
	// ShiftType selects the barrel shifter operation.
	ShiftType ShiftType
	// ShiftAmount is the encoded immediate shift amount (0-31).
	ShiftAmount uint8
	// Rs holds the shift amount for OperandRegisterShift.
	Rs uint8
}

// IsRegister reports whether the operand reads Rm.
func (o Operand) IsRegister() bool {
	return o.Kind == OperandImmediateShift || o.Kind == OperandRegisterShift
}

// RotatedValue returns the value of an immediate operand after rotation.
func (o Operand) RotatedValue() uint32 {
	r := uint32(o.Rotate) & 31
	if r == 0 {
		return o.Imm
	}
	return (o.Imm >> r) | (o.Imm << (32 - r))
}

// Register indices with a dedicated role.
const (
	RegSP = 13 // Stack pointer
	RegLR = 14 // Link register
	RegPC = 15 // Program counter
)

// Instruction represents a decoded ARM instruction.
type Instruction struct {
	Op     Op     // Operation
	Format Format // Encoding format
	Cond   Cond   // Condition field
	Word   uint32 // Raw instruction word

	// Branch fields. Offset is the raw 24-bit word displacement.
	Offset uint32

	// Register fields. Rm is also the target register of BX.
	Rd uint8
	Rn uint8
	Rm uint8

	// Data processing fields.
	Operand  Operand
	SetFlags bool

	// Block data transfer fields.
	RegisterList uint16
	PreIndex     bool // P: adjust the address before each transfer
	Up           bool // U: ascending addresses
	ForceUser    bool // S: user bank transfer, or CPSR restore for LDM with PC
	Writeback    bool // W: write the final address back to Rn
	Load         bool // L: LDM when set, STM otherwise
}

// Valid reports whether the word matched a supported encoding.
func (i *Instruction) Valid() bool {
	return i != nil && i.Format != FormatUnknown
}

// BranchOffset returns the byte displacement of a branch: the 24-bit word
// offset sign-extended from bit 23 and multiplied by 4.
func (i *Instruction) BranchOffset() int32 {
	return int32(i.Offset<<8) >> 6
}

// RegisterCount returns the number of registers named by a block data
// transfer register list.
func (i *Instruction) RegisterCount() int {
	n := 0
	for list := i.RegisterList; list != 0; list &= list - 1 {
		n++
	}
	return n
}
