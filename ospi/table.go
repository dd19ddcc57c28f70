package ospi

import "fmt"

// TransferKind names a prebuilt direct transfer descriptor.
type TransferKind int

const (
	TransferWriteEnable TransferKind = iota
	TransferReadStatus
	TransferReadID
	TransferWriteAddressMode
	TransferReadFlagStatus
	TransferReadVolatileConfig
	TransferChipErase

	transferKindCount
)

func (k TransferKind) String() string {
	switch k {
	case TransferWriteEnable:
		return "write-enable"
	case TransferReadStatus:
		return "read-status"
	case TransferReadID:
		return "read-id"
	case TransferWriteAddressMode:
		return "write-address-mode"
	case TransferReadFlagStatus:
		return "read-flag-status"
	case TransferReadVolatileConfig:
		return "read-volatile-config"
	case TransferChipErase:
		return "chip-erase"
	default:
		return fmt.Sprintf("TransferKind(%d)", int(k))
	}
}

// Table maps every TransferKind to an immutable descriptor.
// A Table is safe for concurrent use.
type Table struct {
	entries [transferKindCount]DirectTransfer
}

// NewTable builds a Table from descriptors. Every kind must be present and
// every descriptor must encode.
func NewTable(descriptors map[TransferKind]DirectTransfer) (*Table, error) {
	t := &Table{}
	for k := TransferKind(0); k < transferKindCount; k++ {
		d, ok := descriptors[k]
		if !ok {
			return nil, fmt.Errorf("missing descriptor for %s", k)
		}
		if err := validate(&d); err != nil {
			return nil, fmt.Errorf("descriptor %s: %w", k, err)
		}
		t.entries[k] = d
	}
	for k := range descriptors {
		if k < 0 || k >= transferKindCount {
			return nil, fmt.Errorf("unknown transfer kind %d", int(k))
		}
	}
	return t, nil
}

// DefaultTable returns the descriptors for the supported part variants in
// extended SPI mode.
func DefaultTable() *Table {
	t, err := NewTable(DefaultDescriptors())
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultDescriptors returns a fresh copy of the default descriptor set, for
// callers that want to override single entries before calling NewTable.
func DefaultDescriptors() map[TransferKind]DirectTransfer {
	return map[TransferKind]DirectTransfer{
		TransferWriteEnable: {
			Command:       OpWriteEnable,
			CommandLength: 1,
		},
		TransferReadStatus: {
			Command:       OpReadStatus,
			CommandLength: 1,
			DataLength:    1,
		},
		TransferReadID: {
			Command:       OpReadID,
			CommandLength: 1,
			DataLength:    4,
		},
		TransferWriteAddressMode: {
			Command:       OpWriteVolatileConfig,
			CommandLength: 1,
			Address:       VolatileConfigAddressMode,
			AddressLength: 3,
			Data:          AddressMode4Byte,
			DataLength:    1,
		},
		TransferReadFlagStatus: {
			Command:       OpReadFlagStatus,
			CommandLength: 1,
			DataLength:    1,
		},
		TransferReadVolatileConfig: {
			Command:       OpReadVolatileConfig,
			CommandLength: 1,
			Address:       VolatileConfigIOMode,
			AddressLength: 3,
			DataLength:    1,
			DummyCycles:   8,
		},
		TransferChipErase: {
			Command:       OpChipErase,
			CommandLength: 1,
		},
	}
}

// Lookup returns a copy of the descriptor for kind. Unknown kinds return the
// zero descriptor, which every driver rejects.
func (t *Table) Lookup(kind TransferKind) DirectTransfer {
	if kind < 0 || kind >= transferKindCount {
		return DirectTransfer{}
	}
	return t.entries[kind]
}
