// Package main provides the entry point for arm7core.
// arm7core is an ARM7TDMI execution core with an N/S/I cycle model.
//
// For the full CLI, use: go run ./cmd/arm7sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("arm7core - ARM7TDMI execution core")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  go run ./cmd/arm7sim [options] <program>    run a program")
	fmt.Println("  go run ./cmd/conformance <file.json|dir>    run single-step test vectors")
	fmt.Println("  go run ./cmd/benchmark                      run the timing microbenchmarks")
	fmt.Println("")
	fmt.Println("arm7sim options:")
	fmt.Println("  -timing    Enable cycle accounting")
	fmt.Println("  -config    Path to timing configuration JSON file")
	fmt.Println("  -raw       Treat the program as a flat binary image")
	fmt.Println("  -trace     Print a disassembled trace")
	fmt.Println("  -v         Verbose output")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/arm7sim' instead.")
	}
}
