package bringup

import "time"

// Phases reported in Progress.Phase.
const (
	PhaseInit      = "init"
	PhaseReset     = "reset"
	PhaseIdentify  = "identify"
	PhaseConfigure = "configure"
	PhaseErase     = "erase"
	PhaseProgram   = "program"
	PhaseVerify    = "verify"
	PhaseComplete  = "complete"
)

// Progress contains information about the bring-up progress.
// Passed to ProgressCallback before each step and once on completion.
type Progress struct {
	// Phase groups steps:
	//   "init"      - Opening the driver and selecting the protocol
	//   "reset"     - Pulsing the reset line
	//   "identify"  - Reading the device ID
	//   "configure" - Address mode and register reads
	//   "erase"     - Chip erase
	//   "program"   - Writing the pattern and waiting for completion
	//   "verify"    - Readback and comparison
	//   "complete"  - Sequence finished successfully
	Phase string

	// Step is the step about to run (StepNone on completion)
	Step Step

	// StepIndex is the 1-based position of Step in the sequence
	StepIndex int

	// TotalSteps is the number of steps in the sequence
	TotalSteps int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the sequence started
	ElapsedTime time.Duration
}

// ProgressCallback is called during the bring-up sequence to report progress.
// Implementations should return quickly.
//
// Example:
//
//	runner := bringup.New(drv,
//	    bringup.WithProgressCallback(func(p bringup.Progress) {
//	        fmt.Printf("[%s] %d/%d %s\n", p.Phase, p.StepIndex, p.TotalSteps, p.Step)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the runner.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	runner := bringup.New(drv, bringup.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
