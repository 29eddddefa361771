package conformance

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/arm7core/emu"
)

// Options configures a conformance run.
type Options struct {
	// CompareTransactions also checks the observed bus transfers against
	// the vector's transaction list. Cycle numbers are never compared.
	CompareTransactions bool

	// StopOnUnknown reports opcodes the core cannot decode as failures even
	// when the final state happens to match.
	StopOnUnknown bool

	// Logger receives one entry per failing vector. Nil disables logging.
	Logger logrus.FieldLogger
}

// Failure describes one vector whose outcome differs from its final state.
type Failure struct {
	Index  int
	Opcode uint32

	// Err is the step error, if any.
	Err error

	// StateDiff and TransactionDiff are go-cmp diffs (-want +got).
	StateDiff       string
	TransactionDiff string
}

// String renders the failure for a report.
func (f Failure) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "vector %d, opcode 0x%08X", f.Index, f.Opcode)
	if f.Err != nil {
		fmt.Fprintf(&sb, ": %v", f.Err)
	}
	if f.StateDiff != "" {
		fmt.Fprintf(&sb, "\nstate (-want +got):\n%s", f.StateDiff)
	}
	if f.TransactionDiff != "" {
		fmt.Fprintf(&sb, "\ntransactions (-want +got):\n%s", f.TransactionDiff)
	}
	return sb.String()
}

// Report summarizes a run.
type Report struct {
	Total    int
	Passed   int
	Unknown  int
	Failures []Failure
}

// Failed returns true if any vector failed.
func (r Report) Failed() bool {
	return len(r.Failures) > 0
}

// Merge adds the results of o to r.
func (r *Report) Merge(o Report) {
	r.Total += o.Total
	r.Passed += o.Passed
	r.Unknown += o.Unknown
	r.Failures = append(r.Failures, o.Failures...)
}

// Summary returns a one-line summary.
func (r Report) Summary() string {
	return fmt.Sprintf("%d/%d passed, %d failed, %d unknown opcodes",
		r.Passed, r.Total, len(r.Failures), r.Unknown)
}

// Run executes every vector on a fresh core and compares the outcome.
func Run(vectors []Vector, opts Options) Report {
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	report := Report{Total: len(vectors)}
	for i := range vectors {
		failure, unknown := runVector(i, &vectors[i], opts)
		if unknown {
			report.Unknown++
		}
		if failure == nil {
			report.Passed++
			continue
		}

		logger.WithFields(logrus.Fields{
			"vector": i,
			"opcode": fmt.Sprintf("0x%08X", failure.Opcode),
		}).Debug("vector failed")
		report.Failures = append(report.Failures, *failure)
	}

	return report
}

// RunFile loads the vectors in path and runs them.
func RunFile(path string, opts Options) (Report, error) {
	vectors, err := LoadFile(path)
	if err != nil {
		return Report{}, err
	}
	return Run(vectors, opts), nil
}

func runVector(index int, v *Vector, opts Options) (failure *Failure, unknown bool) {
	f := Failure{Index: index, Opcode: v.Opcode}

	defer func() {
		if p := recover(); p != nil {
			f.Err = fmt.Errorf("core panicked: %v", p)
			failure = &f
		}
	}()

	cpu := emu.NewCPU()
	cpu.Restore(v.Initial.Snapshot())
	bus := NewTransactionBus(v)

	result := cpu.Step(bus)
	unknown = errors.Is(result.Err, emu.ErrUnknownInstruction)
	if result.Err != nil && (!unknown || opts.StopOnUnknown) {
		f.Err = result.Err
	}

	want := v.Final
	want.Access &= uint8(accessMask)
	f.StateDiff = cmp.Diff(want, StateFromSnapshot(cpu.Snapshot()))

	if opts.CompareTransactions {
		f.TransactionDiff = cmp.Diff(normalize(v.Transactions), bus.Observed,
			cmpopts.IgnoreFields(Transaction{}, "Cycle"),
			cmpopts.EquateEmpty())
	}

	if f.Err == nil && f.StateDiff == "" && f.TransactionDiff == "" {
		return nil, unknown
	}
	return &f, unknown
}

// normalize drops the access bits the core never issues.
func normalize(ts []Transaction) []Transaction {
	out := make([]Transaction, len(ts))
	for i, t := range ts {
		t.Access &= uint8(accessMask)
		out[i] = t
	}
	return out
}
