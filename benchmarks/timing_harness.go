// Package benchmarks provides timing benchmark infrastructure for the
// ARM7TDMI cycle model.
package benchmarks

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/arm7core/emu"
	"github.com/sarchlab/arm7core/timing/core"
	"github.com/sarchlab/arm7core/timing/latency"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing model
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of retired pipeline slots
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// NonSequential, Sequential and Idle count N, S and I cycles
	NonSequential uint64 `json:"non_sequential"`
	Sequential    uint64 `json:"sequential"`
	Idle          uint64 `json:"idle"`

	// BufferHits/Misses (if the fetch buffer is enabled)
	BufferHits   uint64 `json:"buffer_hits,omitempty"`
	BufferMisses uint64 `json:"buffer_misses,omitempty"`

	// ExitCode is R0 when the program reached its final branch to itself
	ExitCode uint32 `json:"exit_code"`

	// Err is set when the core halted on an error
	Err string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program. Every program ends in a
// branch to itself with its result in R0.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the core state (e.g., initialize registers, memory)
	Setup func(regs *emu.RegFile, memory *emu.Memory)

	// Program is the ARM machine code to execute
	Program []byte

	// ExpectedExit is the expected value of R0 (for validation)
	ExpectedExit uint32
}

// DefaultProgramBase is where programs are loaded: the first game pak wait
// state region.
const DefaultProgramBase = 0x08000000

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableFetchBuffer enables the code fetch buffer
	EnableFetchBuffer bool

	// Timing overrides the default memory timing when set
	Timing *latency.TimingConfig

	// ProgramBase is the load and entry address of every program
	ProgramBase uint32

	// MaxInstructions bounds each run
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableFetchBuffer: false,
		ProgramBase:       DefaultProgramBase,
		MaxInstructions:   100000,
		Output:            os.Stdout,
		Verbose:           false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

func (h *Harness) timingConfig() *latency.TimingConfig {
	config := latency.DefaultTimingConfig()
	if h.config.Timing != nil {
		config = h.config.Timing.Clone()
	}
	config.FetchBuffer.Enabled = h.config.EnableFetchBuffer
	return config
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	memory := emu.NewMemory()
	memory.LoadProgram(h.config.ProgramBase, bench.Program)

	cpu := emu.NewCPU(emu.WithEntryPoint(h.config.ProgramBase))
	cpu.Registers().SetReg(emu.RegSP, 0x03007F00)

	if bench.Setup != nil {
		bench.Setup(cpu.Registers(), memory)
	}

	c := core.NewCore(cpu, memory, latency.NewTableWithConfig(h.timingConfig()))

	start := time.Now()
	err := c.Run(h.config.MaxInstructions)
	wallTime := time.Since(start)

	stats := c.Stats()
	bus := c.Bus.Stats()
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		CPI:                 stats.CPI(),
		NonSequential:       stats.NonSequential,
		Sequential:          stats.Sequential,
		Idle:                stats.Idle,
		BufferHits:          bus.BufferHits,
		BufferMisses:        bus.BufferMisses,
		ExitCode:            cpu.Registers().Reg(0),
		WallTime:            wallTime,
	}
	if err != nil {
		result.Err = err.Error()
	}

	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "ran %s: %d instructions, %d cycles\n",
			bench.Name, stats.Instructions, stats.Cycles)
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== ARM7TDMI Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Exit Code: %d\n", r.ExitCode)
		if r.Err != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Err)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  N Cycles:             %d\n", r.NonSequential)
		_, _ = fmt.Fprintf(h.config.Output, "  S Cycles:             %d\n", r.Sequential)
		_, _ = fmt.Fprintf(h.config.Output, "  I Cycles:             %d\n", r.Idle)

		if r.BufferHits > 0 || r.BufferMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Fetch Buffer ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.BufferHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.BufferMisses)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,n_cycles,s_cycles,i_cycles,buffer_hits,buffer_misses,exit_code")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.NonSequential,
			r.Sequential,
			r.Idle,
			r.BufferHits,
			r.BufferMisses,
			r.ExitCode,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	FetchBufferEnabled bool   `json:"fetch_buffer_enabled"`
	ProgramBase        uint32 `json:"program_base"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config: BenchmarkConfig{
				FetchBufferEnabled: h.config.EnableFetchBuffer,
				ProgramBase:        h.config.ProgramBase,
			},
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// Helper functions for building ARM programs

// BuildProgram assembles instruction words into a byte slice.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, 4*len(instrs))
	for i, inst := range instrs {
		binary.LittleEndian.PutUint32(program[4*i:], inst)
	}
	return program
}
