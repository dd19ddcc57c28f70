package ospi

import "time"

// Command opcodes for the extended (1S-1S-1S) SPI command set.
const (
	// OpWriteEnable sets the write enable latch
	OpWriteEnable = 0x06

	// OpReadStatus reads the status register
	OpReadStatus = 0x05

	// OpReadID reads the JEDEC identification
	OpReadID = 0x9F

	// OpWriteVolatileConfig writes one byte of the volatile configuration register
	OpWriteVolatileConfig = 0x81

	// OpReadVolatileConfig reads one byte of the volatile configuration register
	OpReadVolatileConfig = 0x85

	// OpReadFlagStatus reads the flag status register
	OpReadFlagStatus = 0x70

	// OpChipErase erases the whole device
	OpChipErase = 0xC7

	// OpChipEraseAlt is the alternate chip erase opcode
	OpChipEraseAlt = 0x60

	// OpPageProgram programs up to one page with a 3-byte address
	OpPageProgram = 0x02

	// OpPageProgram4B programs up to one page with a 4-byte address
	OpPageProgram4B = 0x12

	// OpRead reads with a 3-byte address
	OpRead = 0x03

	// OpRead4B reads with a 4-byte address
	OpRead4B = 0x13
)

// Status register bits.
const (
	// StatusWriteInProgress is set while an erase or program is executing
	StatusWriteInProgress = 0x01

	// StatusWriteEnabled is set while the write enable latch is set
	StatusWriteEnabled = 0x02
)

// Flag status register bits.
const (
	// FlagAddress4Byte is set when the device expects 4-byte addresses
	FlagAddress4Byte = 0x01

	// FlagReady is set when the device is not busy
	FlagReady = 0x80
)

// Volatile configuration register layout.
const (
	// VolatileConfigIOMode is the register address holding the I/O protocol
	VolatileConfigIOMode = 0x000000

	// VolatileConfigAddressMode is the register address holding the address width
	VolatileConfigAddressMode = 0x000005

	// IOModeExtendedSPI is the I/O mode value for extended SPI (the reset default)
	IOModeExtendedSPI = 0xFF

	// AddressMode4Byte selects 4-byte addressing
	AddressMode4Byte = 0xFE

	// AddressMode3Byte selects 3-byte addressing (the reset default)
	AddressMode3Byte = 0xFF
)

// Device identification values of the two supported part variants.
const (
	DeviceIDVariantA uint32 = 0x021A5BEF
	DeviceIDVariantB uint32 = 0x0F1A5A34
)

// Geometry and address map.
const (
	// PageSize is the program page size in bytes
	PageSize = 256

	// MappedBase is the CPU address at which the flash is memory mapped
	MappedBase = 0x90000000

	// AddressSpace3Byte is the number of bytes reachable with 3-byte addresses
	AddressSpace3Byte = 1 << 24

	// MaxDirectData is the largest data field of a direct transfer in bytes
	MaxDirectData = 4
)

// Device timing. The reset values match the part datasheet; the program and
// erase values are upper bounds.
const (
	TimeResetPulse = 1 * time.Millisecond
	TimeResetSetup = 2 * time.Millisecond
	TimeWrite      = 10 * time.Millisecond
	TimeChipErase  = 400 * time.Second
)
