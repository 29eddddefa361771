package emu

import "errors"

var (
	// ErrUnknownInstruction is reported when a retired pipeline word matches
	// no supported encoding. Execution continues with the next slot.
	ErrUnknownInstruction = errors.New("unknown instruction")

	// ErrThumbUnsupported is reported when the core is stepped in Thumb state.
	ErrThumbUnsupported = errors.New("thumb execution is not supported")

	// ErrInvalidMode marks a reserved CPSR mode pattern. It is carried by the
	// panics raised from RegFile when its status word is corrupted.
	ErrInvalidMode = errors.New("invalid processor mode")

	// ErrMaxInstructions is returned once the configured instruction limit
	// has been reached.
	ErrMaxInstructions = errors.New("max instructions reached")

	// ErrRunnerStopped is returned by requests made after Runner.Stop.
	ErrRunnerStopped = errors.New("runner stopped")
)
