package emu

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/arm7core/insts"
)

// StepResult represents the result of executing a single pipeline slot.
type StepResult struct {
	// Address is the address of the retired instruction.
	Address uint32

	// Opcode is the retired instruction word.
	Opcode uint32

	// Executed is true if the condition passed and the instruction ran.
	Executed bool

	// Err is set if the slot could not be executed. ErrUnknownInstruction is
	// not fatal: the core has already moved on to the next slot.
	Err error
}

// SelfLoop reports whether the slot was an executed branch to itself, the
// usual way a bare-metal test program ends.
func (r StepResult) SelfLoop() bool {
	return r.Executed && r.Opcode&0x0FFFFFFF == 0x0AFFFFFE
}

// CPU is the ARM7TDMI execution core. It owns the register file and the
// two-entry prefetch pipeline; memory is reached through the Bus passed to
// each Step.
type CPU struct {
	regs    *RegFile
	decoder *insts.Decoder

	// pipeline[0] is the decoded slot, pipeline[1] the fetched one.
	pipeline   [2]uint32
	nextAccess AccessKind
	primed     bool

	logger logrus.FieldLogger
	trace  TraceSink

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// Option is a functional option for configuring the CPU.
type Option func(*CPU)

// WithLogger sets the logger that receives execution reports.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *CPU) {
		c.logger = l
	}
}

// WithTraceSink sets a sink that receives one entry per retired slot.
func WithTraceSink(s TraceSink) Option {
	return func(c *CPU) {
		c.trace = s
	}
}

// WithMaxInstructions sets the maximum number of slots to retire.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) Option {
	return func(c *CPU) {
		c.maxInstructions = max
	}
}

// WithEntryPoint sets the address of the first fetch.
func WithEntryPoint(addr uint32) Option {
	return func(c *CPU) {
		c.regs.SetPC(addr)
	}
}

// NewCPU creates a core in its reset state.
func NewCPU(opts ...Option) *CPU {
	c := &CPU{
		regs:       NewRegFile(),
		decoder:    insts.NewDecoder(),
		nextAccess: AccessCode | AccessNonSequential,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.logger = l
	}

	return c
}

// Reset restores the reset state and empties the pipeline.
func (c *CPU) Reset() {
	c.regs.Reset()
	c.pipeline = [2]uint32{}
	c.nextAccess = AccessCode | AccessNonSequential
	c.primed = false
	c.instructionCount = 0
}

// Jump empties the pipeline and makes addr the next instruction to execute.
func (c *CPU) Jump(addr uint32) {
	c.regs.SetPC(addr)
	c.primed = false
}

// Registers returns the live register file. It is meant for setting up state
// before a run; use Snapshot for read-only introspection, and never touch the
// register file while a Step is in progress.
func (c *CPU) Registers() *RegFile {
	return c.regs
}

// Pipeline returns the decoded and fetched instruction words.
func (c *CPU) Pipeline() [2]uint32 {
	return c.pipeline
}

// NextAccess returns the kind of the next instruction fetch.
func (c *CPU) NextAccess() AccessKind {
	return c.nextAccess
}

// State returns the current execution state.
func (c *CPU) State() ExecState {
	return c.regs.State()
}

// InstructionCount returns the number of retired slots.
func (c *CPU) InstructionCount() uint64 {
	return c.instructionCount
}

// ExecutionAddress returns the address of the instruction in the decode
// slot, which is the next one Step retires.
func (c *CPU) ExecutionAddress() uint32 {
	if !c.primed {
		return c.regs.PC()
	}
	return c.regs.PC() - 2*c.regs.State().InstructionSize()
}

// Step retires the instruction in the decode slot and refills the pipeline.
// The first step after a reset or a jump loads the pipeline from R15.
func (c *CPU) Step(bus Bus) StepResult {
	if c.maxInstructions > 0 && c.instructionCount >= c.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	if c.regs.State() == StateThumb {
		return StepResult{
			Address: c.ExecutionAddress(),
			Err:     fmt.Errorf("step at 0x%08X: %w", c.ExecutionAddress(), ErrThumbUnsupported),
		}
	}

	if !c.primed {
		c.reload32(bus)
	}

	opcode := c.pipeline[0]
	c.pipeline[0] = c.pipeline[1]
	c.pipeline[1] = bus.Read32(c.regs.PC(), c.nextAccess)

	result := StepResult{Address: c.regs.PC() - 8, Opcode: opcode}
	inst := c.decoder.Decode(opcode)

	switch {
	case !inst.Valid():
		result.Err = fmt.Errorf("%w: 0x%08X at 0x%08X", ErrUnknownInstruction, opcode, result.Address)
		c.logger.WithFields(logrus.Fields{
			"pc":     fmt.Sprintf("0x%08X", result.Address),
			"opcode": fmt.Sprintf("0x%08X", opcode),
		}).Warn("unknown instruction")
		c.advance()
	case !c.regs.ConditionPassed(inst.Cond):
		c.advance()
	default:
		result.Executed = true
		c.execute(inst, bus)
	}

	c.instructionCount++

	if c.trace != nil {
		c.trace.Trace(TraceEntry{
			Address:  result.Address,
			Opcode:   opcode,
			Inst:     inst,
			Executed: result.Executed,
			Err:      result.Err,
		})
	}

	if c.traceLogging() {
		c.logger.WithFields(logrus.Fields{
			"pc":       fmt.Sprintf("0x%08X", result.Address),
			"executed": result.Executed,
		}).Trace(insts.DisassembleAt(inst, result.Address))
	}

	return result
}

// traceLogging reports whether per-step trace logs would be emitted.
func (c *CPU) traceLogging() bool {
	switch l := c.logger.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.TraceLevel)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.TraceLevel)
	}
	return true
}

func (c *CPU) execute(inst *insts.Instruction, bus Bus) {
	switch inst.Format {
	case insts.FormatBranch:
		c.executeBranch(inst, bus)
	case insts.FormatBranchExchange:
		c.executeBranchExchange(inst, bus)
	case insts.FormatDataProcessing:
		c.executeDataProcessing(inst, bus)
	case insts.FormatBlockDataTransfer:
		c.executeBlockDataTransfer(inst, bus)
	default:
		panic(fmt.Sprintf("emu: no executor for format %d", inst.Format))
	}
}

// advance moves to the next slot without a branch.
func (c *CPU) advance() {
	c.regs.AdvancePC(4)
	c.nextAccess = AccessCode | AccessSequential
}

// reload32 refills the pipeline with ARM words starting at R15.
func (c *CPU) reload32(bus Bus) {
	pc := c.regs.PC()
	c.pipeline[0] = bus.Read32(pc, AccessCode|AccessNonSequential)
	c.pipeline[1] = bus.Read32(pc+4, AccessCode|AccessSequential)
	c.regs.SetPC(pc + 8)
	c.nextAccess = AccessCode | AccessSequential
	c.primed = true
}

// reload16 refills the pipeline with Thumb halfwords starting at R15.
func (c *CPU) reload16(bus Bus) {
	pc := c.regs.PC()
	c.pipeline[0] = uint32(bus.Read16(pc, AccessCode|AccessNonSequential))
	c.pipeline[1] = uint32(bus.Read16(pc+2, AccessCode|AccessSequential))
	c.regs.SetPC(pc + 4)
	c.nextAccess = AccessCode | AccessSequential
	c.primed = true
}

// reload refills the pipeline for the current execution state.
func (c *CPU) reload(bus Bus) {
	if c.regs.State() == StateThumb {
		c.reload16(bus)
		return
	}
	c.reload32(bus)
}
