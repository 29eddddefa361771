package emu

import (
	"context"
	"errors"
	"sync"
)

// RunReport summarizes one batch of steps executed by a Runner.
type RunReport struct {
	// Steps is the number of retired slots.
	Steps int

	// Unknown is the number of retired slots that failed to decode.
	Unknown int

	// Snapshot is the core state after the batch.
	Snapshot Snapshot

	// Err is the error that ended the batch early, if any.
	Err error
}

type runRequest struct {
	steps int
	reply chan RunReport
}

// Runner owns a CPU and its bus on a background goroutine. All access to the
// core goes through requests, so a Runner may be driven from any goroutine.
type Runner struct {
	cpu *CPU
	bus Bus

	requests chan runRequest
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRunner starts a runner for cpu and bus. The caller must not touch
// either until Stop returns.
func NewRunner(cpu *CPU, bus Bus) *Runner {
	r := &Runner{
		cpu:      cpu,
		bus:      bus,
		requests: make(chan runRequest),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go r.loop()

	return r
}

func (r *Runner) loop() {
	defer close(r.done)

	for {
		select {
		case req := <-r.requests:
			req.reply <- r.run(req.steps)
		case <-r.quit:
			return
		}
	}
}

func (r *Runner) run(n int) RunReport {
	var report RunReport

	for i := 0; i < n; i++ {
		res := r.cpu.Step(r.bus)
		if res.Err != nil && !errors.Is(res.Err, ErrUnknownInstruction) {
			report.Err = res.Err
			break
		}
		report.Steps++
		if res.Err != nil {
			report.Unknown++
		}
	}

	report.Snapshot = r.cpu.Snapshot()

	return report
}

// Step executes n slots and reports the resulting state.
func (r *Runner) Step(ctx context.Context, n int) (RunReport, error) {
	req := runRequest{steps: n, reply: make(chan RunReport, 1)}

	select {
	case r.requests <- req:
	case <-ctx.Done():
		return RunReport{}, ctx.Err()
	case <-r.done:
		return RunReport{}, ErrRunnerStopped
	}

	select {
	case report := <-req.reply:
		return report, nil
	case <-ctx.Done():
		return RunReport{}, ctx.Err()
	}
}

// Snapshot returns the current core state.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	report, err := r.Step(ctx, 0)
	if err != nil {
		return Snapshot{}, err
	}
	return report.Snapshot, nil
}

// Stop ends the background goroutine and waits for it to exit. It is safe
// to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
	})
	<-r.done
}
