package insts

import (
	"fmt"
	"strings"
)

// RegisterName returns the assembler name of a register index.
func RegisterName(r uint8) string {
	switch r {
	case RegSP:
		return "SP"
	case RegLR:
		return "LR"
	case RegPC:
		return "PC"
	}
	return fmt.Sprintf("R%d", r)
}

// Disassemble renders a decoded instruction as assembler text. Branch
// targets are shown as signed byte displacements relative to the pipelined PC.
func Disassemble(inst *Instruction) string {
	return disassemble(inst, 0, false)
}

// DisassembleAt renders a decoded instruction located at addr, resolving
// branch targets to absolute addresses.
func DisassembleAt(inst *Instruction, addr uint32) string {
	return disassemble(inst, addr, true)
}

func disassemble(inst *Instruction, addr uint32, absolute bool) string {
	if !inst.Valid() {
		return fmt.Sprintf("UNDEFINED 0x%08X", inst.Word)
	}

	switch inst.Format {
	case FormatBranch:
		mnemonic := inst.Op.String() + condSuffix(inst.Cond)
		if absolute {
			target := addr + 8 + uint32(inst.BranchOffset())
			return fmt.Sprintf("%s 0x%08X", mnemonic, target)
		}
		offset := inst.BranchOffset()
		if offset < 0 {
			return fmt.Sprintf("%s #-0x%X", mnemonic, -int64(offset))
		}
		return fmt.Sprintf("%s #+0x%X", mnemonic, offset)
	case FormatBranchExchange:
		return fmt.Sprintf("BX%s %s", condSuffix(inst.Cond), RegisterName(inst.Rm))
	case FormatDataProcessing:
		return disassembleDataProcessing(inst)
	case FormatBlockDataTransfer:
		return disassembleBlockDataTransfer(inst)
	}

	return fmt.Sprintf("UNDEFINED 0x%08X", inst.Word)
}

func condSuffix(c Cond) string {
	if c == CondAL {
		return ""
	}
	return c.String()
}

func disassembleDataProcessing(inst *Instruction) string {
	var sb strings.Builder

	sb.WriteString(inst.Op.String())
	sb.WriteString(condSuffix(inst.Cond))
	if inst.SetFlags && !inst.Op.IsComparison() {
		sb.WriteString("S")
	}
	if inst.Op.IsComparison() && inst.Rd == RegPC {
		sb.WriteString("P")
	}
	sb.WriteString(" ")

	switch {
	case inst.Op.IsComparison():
		sb.WriteString(RegisterName(inst.Rn))
	case inst.Op == OpMOV || inst.Op == OpMVN:
		sb.WriteString(RegisterName(inst.Rd))
	default:
		sb.WriteString(RegisterName(inst.Rd))
		sb.WriteString(", ")
		sb.WriteString(RegisterName(inst.Rn))
	}

	sb.WriteString(", ")
	sb.WriteString(formatOperand(inst.Operand))

	return sb.String()
}

func formatOperand(o Operand) string {
	switch o.Kind {
	case OperandImmediate, OperandRotatedImmediate:
		return fmt.Sprintf("#0x%X", o.RotatedValue())
	case OperandRegisterShift:
		return fmt.Sprintf("%s, %s %s", RegisterName(o.Rm), o.ShiftType, RegisterName(o.Rs))
	}

	rm := RegisterName(o.Rm)
	if o.ShiftAmount == 0 {
		switch o.ShiftType {
		case ShiftLSL:
			return rm
		case ShiftROR:
			return rm + ", RRX"
		default:
			return fmt.Sprintf("%s, %s #32", rm, o.ShiftType)
		}
	}
	return fmt.Sprintf("%s, %s #%d", rm, o.ShiftType, o.ShiftAmount)
}

func disassembleBlockDataTransfer(inst *Instruction) string {
	var sb strings.Builder

	sb.WriteString(inst.Op.String())
	sb.WriteString(condSuffix(inst.Cond))
	switch {
	case inst.Up && !inst.PreIndex:
		sb.WriteString("IA")
	case inst.Up && inst.PreIndex:
		sb.WriteString("IB")
	case !inst.Up && !inst.PreIndex:
		sb.WriteString("DA")
	default:
		sb.WriteString("DB")
	}

	sb.WriteString(" ")
	sb.WriteString(RegisterName(inst.Rn))
	if inst.Writeback {
		sb.WriteString("!")
	}
	sb.WriteString(", ")
	sb.WriteString(formatRegisterList(inst.RegisterList))
	if inst.ForceUser {
		sb.WriteString("^")
	}

	return sb.String()
}

// formatRegisterList renders a register bitmap, collapsing runs of three or
// more consecutive registers into ranges.
func formatRegisterList(list uint16) string {
	var parts []string

	for r := 0; r < 16; r++ {
		if list&(1<<r) == 0 {
			continue
		}
		end := r
		for end+1 < 16 && list&(1<<(end+1)) != 0 {
			end++
		}
		switch {
		case end-r >= 2:
			parts = append(parts, RegisterName(uint8(r))+"-"+RegisterName(uint8(end)))
		case end-r == 1:
			parts = append(parts, RegisterName(uint8(r)), RegisterName(uint8(end)))
		default:
			parts = append(parts, RegisterName(uint8(r)))
		}
		r = end
	}

	return "{" + strings.Join(parts, ", ") + "}"
}
