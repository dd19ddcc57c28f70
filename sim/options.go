package sim

import "github.com/moffa90/go-ospinor/ospi"

// Config holds the simulated device parameters.
type Config struct {
	// ID is the identification value returned by the read ID command
	ID uint32

	// Size is the flash size in bytes
	Size int

	// WriteBusyPolls is the number of status polls a program stays in progress
	WriteBusyPolls int

	// EraseBusyPolls is the number of status polls a chip erase stays in progress
	EraseBusyPolls int

	// StuckBusy keeps every program in progress forever
	StuckBusy bool

	// CorruptOffset is a flash offset whose byte is inverted on read, or -1
	CorruptOffset int64
}

func defaultConfig() Config {
	return Config{
		ID:             ospi.DeviceIDVariantA,
		Size:           1 << 20,
		WriteBusyPolls: 1,
		EraseBusyPolls: 0,
		CorruptOffset:  -1,
	}
}

// Option is a functional option for configuring the simulated Flash.
type Option func(*Config)

// WithID sets the identification value the device reports.
func WithID(id uint32) Option {
	return func(c *Config) {
		c.ID = id
	}
}

// WithSize sets the flash size in bytes.
func WithSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.Size = size
		}
	}
}

// WithWriteBusyPolls sets how many status polls a program stays in progress.
func WithWriteBusyPolls(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.WriteBusyPolls = n
		}
	}
}

// WithEraseBusyPolls sets how many status polls a chip erase stays in progress.
func WithEraseBusyPolls(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.EraseBusyPolls = n
		}
	}
}

// WithStuckBusy makes every program stay in progress forever.
func WithStuckBusy() Option {
	return func(c *Config) {
		c.StuckBusy = true
	}
}

// WithReadCorruption inverts the byte at offset whenever it is read.
func WithReadCorruption(offset uint32) Option {
	return func(c *Config) {
		c.CorruptOffset = int64(offset)
	}
}
