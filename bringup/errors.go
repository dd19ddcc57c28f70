package bringup

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-ospinor/ospi"
)

// ErrTimeout is wrapped by every TimeoutError.
var ErrTimeout = errors.New("timeout")

// StepError records the step at which the bring-up sequence stopped.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", int(e.Step), e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step carried by err, or StepNone if err is not a StepError.
func FailedStep(err error) Step {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return StepNone
}

// DeviceIDError indicates that the device reported an identification value
// that is not one of the accepted part variants.
type DeviceIDError struct {
	Actual   uint32
	Accepted []uint32
}

func (e *DeviceIDError) Error() string {
	return fmt.Sprintf("unsupported device: ID %s is not an accepted variant", ospi.FormatID(e.Actual))
}

// RegisterError indicates that a configuration register read back an
// unexpected value.
type RegisterError struct {
	Register string
	Expected uint32
	Actual   uint32
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("register %s: expected 0x%02X, got 0x%02X", e.Register, e.Expected, e.Actual)
}

// TimeoutError indicates that the device stayed busy beyond the wait budget.
type TimeoutError struct {
	Operation string

	// Budget is the time budget, zero for poll-counted waits
	Budget time.Duration

	// Polls is the poll budget, zero for timed waits
	Polls uint32
}

func (e *TimeoutError) Error() string {
	if e.Polls > 0 {
		return fmt.Sprintf("%s: device still busy after %d polls", e.Operation, e.Polls)
	}
	return fmt.Sprintf("%s: device still busy after %s", e.Operation, e.Budget)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// MismatchError indicates that the readback differs from the written pattern.
// Index is the first differing position.
type MismatchError struct {
	Index    int
	Expected byte
	Actual   byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("readback mismatch at index %d: expected 0x%02X, got 0x%02X",
		e.Index, e.Expected, e.Actual)
}
