package benchmarks

import "github.com/sarchlab/arm7core/emu"

// IWRAMBase is the start of the zero wait state work RAM used for data.
const IWRAMBase = 0x03000000

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets a specific part of the N/S/I cycle model.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memoryBlock(),
		functionCalls(),
		branchTaken(),
		countedLoop(),
		shiftedOperands(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		countedLoop(),
		memoryBlock(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - straight-line ALU code, one S fetch each
func arithmeticSequential() Benchmark {
	instrs := make([]uint32, 0, 21)
	for i := 0; i < 20; i++ {
		r := uint8(i % 5)
		instrs = append(instrs, EncodeADDImm(r, r, 1, false))
	}
	instrs = append(instrs, EncodeHalt())

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 ADDs over 5 registers - measures sequential fetch cost",
		Program:      BuildProgram(instrs...),
		ExpectedExit: 4, // R0 = 0 + 4*1
	}
}

// 2. Dependency Chain - the in-order core has no hazards to pay for
func dependencyChain() Benchmark {
	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDs (R0 = R0 + 1) - same cost as independent ones",
		Program:      buildDependencyChain(20),
		ExpectedExit: 20,
	}
}

func buildDependencyChain(n int) []byte {
	instrs := make([]uint32, 0, n+1)
	for i := 0; i < n; i++ {
		instrs = append(instrs, EncodeADDImm(0, 0, 1, false))
	}
	instrs = append(instrs, EncodeHalt())
	return BuildProgram(instrs...)
}

// 3. Memory Block - STM/LDM bursts to IWRAM
func memoryBlock() Benchmark {
	return Benchmark{
		Name:        "memory_block",
		Description: "STMIA then LDMDB of 4 registers - measures N+S data bursts and the LDM internal cycle",
		Setup: func(regs *emu.RegFile, memory *emu.Memory) {
			regs.SetReg(1, IWRAMBase)
		},
		Program: BuildProgram(
			EncodeMOVImm(2, 1),
			EncodeMOVImm(3, 2),
			EncodeMOVImm(4, 3),
			EncodeMOVImm(5, 4),
			EncodeBlock(false, 1, 0x003C, false, true, true), // STMIA R1!, {R2-R5}
			EncodeBlock(true, 1, 0x03C0, true, false, true),  // LDMDB R1!, {R6-R9}
			EncodeADDReg(0, 6, 7),
			EncodeADDReg(0, 0, 8),
			EncodeADDReg(0, 0, 9),
			EncodeHalt(),
		),
		ExpectedExit: 10,
	}
}

// 4. Function Calls - BL/BX LR pairs, two pipeline reloads per call
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "5 calls (BL + BX LR) - measures call overhead",
		Program: BuildProgram(
			EncodeBL(16), // 0x00 -> 0x18
			EncodeBL(12), // 0x04 -> 0x18
			EncodeBL(8),  // 0x08 -> 0x18
			EncodeBL(4),  // 0x0C -> 0x18
			EncodeBL(0),  // 0x10 -> 0x18
			EncodeHalt(), // 0x14
			EncodeADDImm(0, 0, 1, false),
			EncodeBX(emu.RegLR),
		),
		ExpectedExit: 5,
	}
}

// 5. Branch Taken - forward branches over dead code
func branchTaken() Benchmark {
	instrs := make([]uint32, 0, 16)
	for i := 0; i < 5; i++ {
		instrs = append(instrs,
			EncodeB(CondAL, 0), // skip the next instruction
			EncodeMOVImm(0, 99),
			EncodeADDImm(0, 0, 1, false),
		)
	}
	instrs = append(instrs, EncodeHalt())

	return Benchmark{
		Name:         "branch_taken",
		Description:  "5 taken branches - measures pipeline reload cost",
		Program:      BuildProgram(instrs...),
		ExpectedExit: 5,
	}
}

// 6. Counted Loop - SUBS/BNE loop running 10 iterations
func countedLoop() Benchmark {
	return Benchmark{
		Name:        "counted_loop",
		Description: "10 iterations of ADD/SUBS/BNE - measures a typical loop",
		Program: BuildProgram(
			EncodeMOVImm(0, 0),
			EncodeMOVImm(1, 10),
			EncodeADDImm(0, 0, 2, false), // 0x08
			EncodeSUBImm(1, 1, 1, true),
			EncodeB(CondNE, -16), // 0x10 -> 0x08
			EncodeHalt(),
		),
		ExpectedExit: 20,
	}
}

// 7. Shifted Operands - register specified shifts take an internal cycle
func shiftedOperands() Benchmark {
	return Benchmark{
		Name:        "shifted_operands",
		Description: "2 register specified shifts - measures the I cycle and N refetch",
		Program: BuildProgram(
			EncodeMOVImm(1, 1),
			EncodeMOVImm(2, 3),
			EncodeMOVRegShift(0, 1, ShiftLSL, 2),    // R0 = 8
			EncodeADDRegShift(0, 0, 1, ShiftLSL, 2), // R0 = 16
			EncodeHalt(),
		),
		ExpectedExit: 16,
	}
}
