package bringup

import (
	"time"

	"github.com/moffa90/go-ospinor/ospi"
)

// DefaultTargetAddress is the flash offset the test pattern is written to
// (CPU address 0x90001000).
const DefaultTargetAddress = 0x1000

// Config holds the runner configuration.
type Config struct {
	// ProgressCallback is called before each step (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Table holds the direct transfer descriptors
	Table *ospi.Table

	// AcceptedIDs lists the device identification values of supported parts
	AcceptedIDs []uint32

	// TargetAddress is the flash offset of the test pattern
	TargetAddress uint32

	// ResetPulse is how long the reset line is held low
	ResetPulse time.Duration

	// ResetSetup is how long to wait after releasing reset
	ResetSetup time.Duration

	// WriteTimeout bounds the wait for the pattern write to complete
	WriteTimeout time.Duration

	// EraseTimeout bounds the wait for the chip erase when WaitAfterErase is set
	EraseTimeout time.Duration

	// PollInterval is the delay between status polls
	PollInterval time.Duration

	// WaitAfterErase replaces the advisory status read after erase with a bounded wait
	WaitAfterErase bool

	// StrictRegisterCheck fails the sequence when register reads return unexpected values
	StrictRegisterCheck bool

	// RefillPattern rewrites the write buffer with the incrementing pattern before running
	RefillPattern bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Table:         ospi.DefaultTable(),
		AcceptedIDs:   []uint32{ospi.DeviceIDVariantA, ospi.DeviceIDVariantB},
		TargetAddress: DefaultTargetAddress,
		ResetPulse:    ospi.TimeResetPulse,
		ResetSetup:    ospi.TimeResetSetup,
		WriteTimeout:  ospi.TimeWrite,
		EraseTimeout:  ospi.TimeChipErase,
		PollInterval:  100 * time.Microsecond,
		RefillPattern: true,
	}
}

// Option is a functional option for configuring the Runner.
type Option func(*Config)

// WithProgressCallback sets a callback function to track bring-up progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the runner operations.
//
// Example:
//
//	runner := bringup.New(drv, bringup.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTable replaces the direct transfer descriptor table.
func WithTable(table *ospi.Table) Option {
	return func(c *Config) {
		if table != nil {
			c.Table = table
		}
	}
}

// WithAcceptedIDs replaces the accepted device identification values.
//
// Example:
//
//	runner := bringup.New(drv, bringup.WithAcceptedIDs(0x00BA2010))
func WithAcceptedIDs(ids ...uint32) Option {
	return func(c *Config) {
		if len(ids) > 0 {
			c.AcceptedIDs = append([]uint32(nil), ids...)
		}
	}
}

// WithTargetAddress sets the flash offset the test pattern is written to.
func WithTargetAddress(addr uint32) Option {
	return func(c *Config) {
		c.TargetAddress = addr
	}
}

// WithResetTiming sets the reset pulse width and the setup time after release.
func WithResetTiming(pulse, setup time.Duration) Option {
	return func(c *Config) {
		if pulse >= 0 {
			c.ResetPulse = pulse
		}
		if setup >= 0 {
			c.ResetSetup = setup
		}
	}
}

// WithWriteTimeout sets the budget for the pattern write to complete.
//
// Example:
//
//	runner := bringup.New(drv, bringup.WithWriteTimeout(50*time.Millisecond))
func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.WriteTimeout = timeout
		}
	}
}

// WithEraseTimeout sets the budget for the chip erase to complete.
func WithEraseTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.EraseTimeout = timeout
		}
	}
}

// WithPollInterval sets the delay between status polls.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval >= 0 {
			c.PollInterval = interval
		}
	}
}

// WithWaitAfterErase makes the sequence wait for the chip erase to finish
// before programming. Default is false.
func WithWaitAfterErase(wait bool) Option {
	return func(c *Config) {
		c.WaitAfterErase = wait
	}
}

// WithStrictRegisterCheck makes the flag status and volatile configuration
// reads fail the sequence on unexpected values. Default is false.
func WithStrictRegisterCheck(strict bool) Option {
	return func(c *Config) {
		c.StrictRegisterCheck = strict
	}
}

// WithRefillPattern controls whether Run rewrites the write buffer with the
// incrementing pattern. Disable it to test a custom pattern. Default is true.
func WithRefillPattern(refill bool) Option {
	return func(c *Config) {
		c.RefillPattern = refill
	}
}
