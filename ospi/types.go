package ospi

import "fmt"

// Protocol is the bus protocol used for commands and data.
type Protocol int

const (
	// ProtocolExtendedSPI is single-wire command, address and data (1S-1S-1S)
	ProtocolExtendedSPI Protocol = iota

	// ProtocolOctalSTR is eight-wire single transfer rate (8S-8S-8S)
	ProtocolOctalSTR

	// ProtocolOctalDTR is eight-wire double transfer rate (8D-8D-8D)
	ProtocolOctalDTR
)

func (p Protocol) String() string {
	switch p {
	case ProtocolExtendedSPI:
		return "1S-1S-1S"
	case ProtocolOctalSTR:
		return "8S-8S-8S"
	case ProtocolOctalDTR:
		return "8D-8D-8D"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// Direction is the data direction of a direct transfer.
type Direction int

const (
	DirRead Direction = iota
	DirWrite
)

func (d Direction) String() string {
	if d == DirWrite {
		return "write"
	}
	return "read"
}

// DirectTransfer describes a register-level command.
type DirectTransfer struct {
	// Command is the opcode
	Command uint16

	// CommandLength is the opcode length in bytes (1 or 2)
	CommandLength uint8

	// Address is the register or memory address
	Address uint32

	// AddressLength is the address length in bytes (0, 3 or 4)
	AddressLength uint8

	// Data holds the bytes to write, or receives the bytes read
	Data uint32

	// DataLength is the data length in bytes (0 to MaxDirectData)
	DataLength uint8

	// DummyCycles is the number of dummy clock cycles between address and data
	DummyCycles uint8
}

// Status is the decoded status register.
type Status struct {
	// WriteInProgress is true while an erase or program is executing
	WriteInProgress bool

	// WriteEnabled is true while the write enable latch is set
	WriteEnabled bool
}

// Driver is the peripheral driver a bring-up sequence runs against.
//
// Addresses passed to Write and Read are flash offsets, not CPU addresses.
type Driver interface {
	// Open claims the peripheral with the driver's fixed configuration
	Open() error

	// Close releases the peripheral
	Close() error

	// SetProtocol switches the bus protocol for subsequent commands
	SetProtocol(p Protocol) error

	// DirectTransfer issues a register-level command; reads fill t.Data
	DirectTransfer(t *DirectTransfer, dir Direction) error

	// Write programs src at addr; the caller must have set the write enable latch
	Write(src []byte, addr uint32) error

	// Read copies flash content at addr into dst
	Read(dst []byte, addr uint32) error

	// Status returns the device status
	Status() (Status, error)

	// SetReset drives the device reset line; false asserts reset
	SetReset(high bool) error
}
