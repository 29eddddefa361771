// Package main provides the entry point for arm7sim.
// arm7sim runs ARM-state programs on the ARM7TDMI core, either functionally
// or with N/S/I cycle accounting.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/arm7core/emu"
	"github.com/sarchlab/arm7core/loader"
	"github.com/sarchlab/arm7core/timing/core"
	"github.com/sarchlab/arm7core/timing/latency"
)

type options struct {
	timing     bool
	configPath string
	raw        bool
	base       uint
	max        uint64
	trace      bool
	verbose    bool
	logLevel   string
	cpuProfile string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, runs the program and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("arm7sim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.BoolVar(&opts.timing, "timing", false, "Enable cycle accounting")
	fs.StringVar(&opts.configPath, "config", "", "Path to timing configuration JSON file")
	fs.BoolVar(&opts.raw, "raw", false, "Treat the program as a flat binary image")
	fs.UintVar(&opts.base, "base", 0x08000000, "Load address of a flat binary image")
	fs.Uint64Var(&opts.max, "max", 1000000, "Maximum instructions to retire (0 = unlimited)")
	fs.BoolVar(&opts.trace, "trace", false, "Print a disassembled trace of every retired instruction")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile to file")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: arm7sim [options] <program>\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 1
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		logger.WithError(err).Error("invalid log level")
		return 1
	}
	logger.SetLevel(level)
	if opts.verbose && level < logrus.DebugLevel {
		logger.SetLevel(logrus.DebugLevel)
	}

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			logger.WithError(err).Error("failed to create CPU profile")
			return 1
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.WithError(err).Error("failed to start CPU profile")
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	programPath := fs.Arg(0)
	prog, err := loadProgram(programPath, opts)
	if err != nil {
		logger.WithError(err).Error("error loading program")
		return 1
	}
	if prog.Thumb {
		logger.WithField("entry", fmt.Sprintf("0x%08X", prog.EntryPoint)).
			Error("Thumb entry points are not supported")
		return 1
	}

	logger.WithFields(logrus.Fields{
		"program":  programPath,
		"entry":    fmt.Sprintf("0x%08X", prog.EntryPoint),
		"segments": len(prog.Segments),
	}).Debug("loaded program")

	memory := emu.NewMemory()
	prog.LoadInto(memory)

	cpuOpts := []emu.Option{
		emu.WithLogger(logger),
		emu.WithEntryPoint(prog.EntryPoint),
	}
	if opts.trace {
		cpuOpts = append(cpuOpts, emu.WithTraceSink(emu.TraceFunc(func(e emu.TraceEntry) {
			_, _ = fmt.Fprintln(stdout, e)
		})))
	}

	if opts.timing {
		return runTiming(prog, memory, cpuOpts, opts, stdout, logger)
	}
	return runEmulation(prog, memory, cpuOpts, opts, stdout, logger)
}

func loadProgram(path string, opts options) (*loader.Program, error) {
	if opts.raw {
		if opts.base > 0xFFFFFFFF {
			return nil, fmt.Errorf("base address 0x%X out of range", opts.base)
		}
		return loader.LoadRaw(path, uint32(opts.base))
	}
	return loader.Load(path)
}

// runEmulation runs the program functionally until it spins on a branch to
// itself, reaches the instruction limit or fails.
func runEmulation(
	prog *loader.Program,
	memory *emu.Memory,
	cpuOpts []emu.Option,
	opts options,
	stdout io.Writer,
	logger logrus.FieldLogger,
) int {
	cpu := emu.NewCPU(append(cpuOpts, emu.WithMaxInstructions(opts.max))...)
	cpu.Registers().SetReg(emu.RegSP, prog.InitialSP)

	exitCode := 0
	unknown := 0
	for {
		result := cpu.Step(memory)
		if errors.Is(result.Err, emu.ErrMaxInstructions) {
			logger.WithField("limit", opts.max).Debug("instruction limit reached")
			break
		}
		if errors.Is(result.Err, emu.ErrUnknownInstruction) {
			unknown++
			continue
		}
		if result.Err != nil {
			logger.WithError(result.Err).Error("execution stopped")
			exitCode = 1
			break
		}
		if result.SelfLoop() {
			break
		}
	}

	_, _ = fmt.Fprintf(stdout, "\nInstructions executed: %d\n", cpu.InstructionCount())
	_, _ = fmt.Fprintf(stdout, "Unknown instructions:  %d\n", unknown)
	if opts.verbose {
		_, _ = fmt.Fprintf(stdout, "\n%s\n", cpu.Registers())
	}

	return exitCode
}

// runTiming runs the program on a timed bus and prints the cycle breakdown.
func runTiming(
	prog *loader.Program,
	memory *emu.Memory,
	cpuOpts []emu.Option,
	opts options,
	stdout io.Writer,
	logger logrus.FieldLogger,
) int {
	timingConfig := latency.DefaultTimingConfig()
	if opts.configPath != "" {
		var err error
		timingConfig, err = latency.LoadConfig(opts.configPath)
		if err != nil {
			logger.WithError(err).Error("error loading timing config")
			return 1
		}
	}

	cpu := emu.NewCPU(cpuOpts...)
	cpu.Registers().SetReg(emu.RegSP, prog.InitialSP)
	c := core.NewCore(cpu, memory, latency.NewTableWithConfig(timingConfig))

	exitCode := 0
	if err := c.Run(opts.max); err != nil {
		logger.WithError(err).Error("execution stopped")
		exitCode = 1
	}

	stats := c.Stats()
	total := stats.Cycles
	if total == 0 {
		total = 1
	}
	percent := func(n uint64) float64 {
		return 100.0 * float64(n) / float64(total)
	}

	bus := c.Bus.Stats()
	_, _ = fmt.Fprintf(stdout, "\n")
	_, _ = fmt.Fprintf(stdout, "Total Instructions: %d\n", stats.Instructions)
	_, _ = fmt.Fprintf(stdout, "Total Cycles: %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(stdout, "CPI: %.2f\n", stats.CPI())
	_, _ = fmt.Fprintf(stdout, "\n")
	_, _ = fmt.Fprintf(stdout, "Accesses:\n")
	_, _ = fmt.Fprintf(stdout, "  Non-sequential: %6d (%5.1f%% of cycles)\n",
		stats.NonSequential, percent(stats.NonSequential))
	_, _ = fmt.Fprintf(stdout, "  Sequential:     %6d\n", stats.Sequential)
	_, _ = fmt.Fprintf(stdout, "  Internal:       %6d (%5.1f%% of cycles)\n",
		stats.Idle, percent(stats.Idle))
	_, _ = fmt.Fprintf(stdout, "  Unknown:        %6d\n", stats.Unknown)
	if c.Bus.FetchBuffer() != nil {
		_, _ = fmt.Fprintf(stdout, "\n")
		_, _ = fmt.Fprintf(stdout, "Fetch buffer:\n")
		_, _ = fmt.Fprintf(stdout, "  Hits:   %d\n", bus.BufferHits)
		_, _ = fmt.Fprintf(stdout, "  Misses: %d\n", bus.BufferMisses)
	}

	return exitCode
}
