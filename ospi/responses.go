package ospi

import "fmt"

// ParseStatus decodes a status register value.
func ParseStatus(v byte) Status {
	return Status{
		WriteInProgress: v&StatusWriteInProgress != 0,
		WriteEnabled:    v&StatusWriteEnabled != 0,
	}
}

// Byte encodes s as a status register value.
func (s Status) Byte() byte {
	var v byte
	if s.WriteInProgress {
		v |= StatusWriteInProgress
	}
	if s.WriteEnabled {
		v |= StatusWriteEnabled
	}
	return v
}

// FlagStatus is the decoded flag status register.
type FlagStatus struct {
	// Address4Byte is true when the device expects 4-byte addresses
	Address4Byte bool

	// Ready is true when no erase or program is executing
	Ready bool
}

// ParseFlagStatus decodes a flag status register value.
func ParseFlagStatus(v byte) FlagStatus {
	return FlagStatus{
		Address4Byte: v&FlagAddress4Byte != 0,
		Ready:        v&FlagReady != 0,
	}
}

// AddressLength returns the address width in bytes the flags select.
func (f FlagStatus) AddressLength() uint8 {
	if f.Address4Byte {
		return 4
	}
	return 3
}

// IsAcceptedID reports whether id is one of accepted.
func IsAcceptedID(id uint32, accepted []uint32) bool {
	for _, a := range accepted {
		if id == a {
			return true
		}
	}
	return false
}

// FormatID formats a device identification value.
func FormatID(id uint32) string {
	return fmt.Sprintf("0x%08X", id)
}
