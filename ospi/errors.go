package ospi

import (
	"errors"
	"fmt"
)

// Code is a driver result code.
type Code byte

// Driver result codes.
const (
	CodeSuccess         Code = 0x00
	CodeInUse           Code = 0x01
	CodeNotOpen         Code = 0x02
	CodeInvalidArgument Code = 0x03
	CodeUnsupported     Code = 0x04
	CodeWriteProtected  Code = 0x05
	CodeDeviceBusy      Code = 0x06
	CodeTimeout         Code = 0x07
	CodeAssertion       Code = 0x0F
)

// DriverError represents a failure reported by a peripheral driver.
type DriverError struct {
	// Operation is the driver call that failed
	Operation string

	// Code is the driver result code
	Code Code
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, codeName(e.Code), byte(e.Code))
}

// IsDriverError returns true if err is or wraps a DriverError.
func IsDriverError(err error) bool {
	var de *DriverError
	return errors.As(err, &de)
}

// CodeOf returns the Code carried by err, CodeSuccess for nil and
// CodeAssertion for errors that are not driver errors.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	var de *DriverError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeAssertion
}

// codeName returns a human-readable name for a result code.
func codeName(code Code) string {
	switch code {
	case CodeSuccess:
		return "success"
	case CodeInUse:
		return "already open"
	case CodeNotOpen:
		return "not open"
	case CodeInvalidArgument:
		return "invalid argument"
	case CodeUnsupported:
		return "unsupported"
	case CodeWriteProtected:
		return "write enable latch not set"
	case CodeDeviceBusy:
		return "device busy"
	case CodeTimeout:
		return "timeout"
	case CodeAssertion:
		return "assertion"
	default:
		return fmt.Sprintf("unknown code 0x%02X", byte(code))
	}
}
