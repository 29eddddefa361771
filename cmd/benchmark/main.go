// Command benchmark runs the ARM7TDMI timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv           Output results in CSV format (default: human-readable)
//	-json          Output results in JSON format
//	-fetch-buffer  Enable the code fetch buffer
//	-iwram         Run programs from zero wait state IWRAM instead of ROM
//	-config        Path to timing configuration JSON file
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/arm7core/benchmarks"
	"github.com/sarchlab/arm7core/timing/latency"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	fetchBuffer := flag.Bool("fetch-buffer", false, "Enable the code fetch buffer")
	iwram := flag.Bool("iwram", false, "Run programs from IWRAM instead of ROM")
	configPath := flag.String("config", "", "Path to timing configuration JSON file")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.EnableFetchBuffer = *fetchBuffer
	config.Output = os.Stdout
	if *iwram {
		config.ProgramBase = benchmarks.IWRAMBase + 0x1000
	}
	if *configPath != "" {
		timing, err := latency.LoadConfig(*configPath)
		if err != nil {
			logrus.WithError(err).Fatal("error loading timing config")
		}
		config.Timing = timing
	}

	harness := benchmarks.NewHarness(config)
	harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())

	if !*csvOutput && !*jsonOutput {
		fmt.Println("ARM7TDMI Timing Benchmark Harness")
		fmt.Println("=================================")
		fmt.Printf("Fetch buffer: %v\n", config.EnableFetchBuffer)
		fmt.Printf("Program base: 0x%08X\n", config.ProgramBase)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			logrus.WithError(err).Fatal("failed to write JSON report")
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	for _, r := range results {
		if r.Err != "" {
			logrus.WithField("benchmark", r.Name).Error(r.Err)
			os.Exit(1)
		}
	}
}
