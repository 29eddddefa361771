// Command conformance runs single-step JSON test vectors against the
// ARM7TDMI core.
//
// Usage:
//
//	go run ./cmd/conformance [flags] <file.json|dir>...
//
// Flags:
//
//	-transactions  Also compare the bus transactions of every vector
//	-unknown       Count undecodable opcodes as failures
//	-max-failures  Number of failures to print per file (default 10)
//	-v             Log every failing vector
//
// Directories are searched for *.json files, each run as one test file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/arm7core/conformance"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("conformance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	transactions := fs.Bool("transactions", false, "Also compare bus transactions")
	unknown := fs.Bool("unknown", false, "Count undecodable opcodes as failures")
	maxFailures := fs.Int("max-failures", 10, "Number of failures to print per file")
	verbose := fs.Bool("v", false, "Log every failing vector")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		_, _ = fmt.Fprintf(stderr, "Usage: conformance [options] <file.json|dir>...\n")
		fs.PrintDefaults()
		return 1
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	files, err := collectFiles(fs.Args())
	if err != nil {
		logger.WithError(err).Error("failed to collect vector files")
		return 1
	}

	opts := conformance.Options{
		CompareTransactions: *transactions,
		StopOnUnknown:       *unknown,
		Logger:              logger,
	}

	var total conformance.Report
	for _, path := range files {
		report, err := conformance.RunFile(path, opts)
		if err != nil {
			logger.WithError(err).Error("failed to run vector file")
			return 1
		}
		total.Merge(report)

		_, _ = fmt.Fprintf(stdout, "%-40s %s\n", filepath.Base(path), report.Summary())
		for i, f := range report.Failures {
			if i == *maxFailures {
				_, _ = fmt.Fprintf(stdout, "  ... %d more\n", len(report.Failures)-i)
				break
			}
			_, _ = fmt.Fprintf(stdout, "  %s\n", f)
		}
	}

	_, _ = fmt.Fprintf(stdout, "\nTotal: %s\n", total.Summary())
	if total.Failed() {
		return 1
	}
	return 0
}

// collectFiles expands directories into their JSON files.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}
