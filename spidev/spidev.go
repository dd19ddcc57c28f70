// Package spidev implements ospi.Driver on top of a Linux spidev node.
//
// Only the extended (1S-1S-1S) SPI protocol is available through spidev;
// octal modes need a dedicated controller. The device reset line is driven
// through an optional ResetLine, typically a sysfs GPIO.
//
//	drv := spidev.New(spidev.Config{Device: "/dev/spidev0.0", MaxSpeed: 10000000},
//	    spidev.WithResetLine(spidev.SysfsGPIO(17)),
//	)
//	runner := bringup.New(drv)
package spidev

import (
	"time"

	"github.com/juju/errors"
	"golang.org/x/exp/io/spi"

	"github.com/moffa90/go-ospinor/ospi"
)

// DefaultMaxTransfer is the default spidev buffer size (the kernel's bufsiz).
const DefaultMaxTransfer = 4096

// Conn is a full-duplex SPI connection. *spi.Device satisfies it.
type Conn interface {
	Tx(w, r []byte) error
	Close() error
}

// Config holds the spidev driver configuration.
type Config struct {
	// Device is the spidev node, e.g. /dev/spidev0.0
	Device string

	// Mode is the SPI clock mode
	Mode spi.Mode

	// MaxSpeed is the clock rate in Hz
	MaxSpeed int64

	// AddressLength is the address width in bytes the device starts with (3 or 4)
	AddressLength uint8

	// MaxTransfer is the largest single transfer in bytes
	MaxTransfer int

	// PageTimeout bounds the wait between pages of a multi-page write
	PageTimeout time.Duration

	// PollInterval is the delay between status polls
	PollInterval time.Duration
}

// Option is a functional option for configuring the Driver.
type Option func(*Driver)

// WithConn uses conn instead of opening Config.Device.
func WithConn(conn Conn) Option {
	return func(d *Driver) {
		d.injected = conn
	}
}

// WithResetLine sets the line driving the device reset pin.
func WithResetLine(line ResetLine) Option {
	return func(d *Driver) {
		d.reset = line
	}
}

// Driver is an ospi.Driver over spidev.
// Driver is not safe for concurrent use.
type Driver struct {
	cfg      Config
	conn     Conn
	injected Conn
	reset    ResetLine
	addrLen  uint8
}

// New creates a Driver. The device is not touched until Open.
func New(cfg Config, opts ...Option) *Driver {
	if cfg.Device == "" {
		cfg.Device = "/dev/spidev0.0"
	}
	if cfg.MaxSpeed <= 0 {
		cfg.MaxSpeed = 1000000
	}
	if cfg.AddressLength != 4 {
		cfg.AddressLength = 3
	}
	if cfg.MaxTransfer <= 0 {
		cfg.MaxTransfer = DefaultMaxTransfer
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = ospi.TimeWrite
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Microsecond
	}

	d := &Driver{
		cfg:     cfg,
		reset:   noReset{},
		addrLen: cfg.AddressLength,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddressLength returns the address width the driver currently uses.
func (d *Driver) AddressLength() uint8 {
	return d.addrLen
}

// Open implements ospi.Driver.
func (d *Driver) Open() error {
	if d.conn != nil {
		return &ospi.DriverError{Operation: "open", Code: ospi.CodeInUse}
	}
	if d.injected != nil {
		d.conn = d.injected
		return nil
	}

	dev, err := spi.Open(&spi.Devfs{
		Dev:      d.cfg.Device,
		Mode:     d.cfg.Mode,
		MaxSpeed: d.cfg.MaxSpeed,
	})
	if err != nil {
		return errors.Annotatef(err, "open %s", d.cfg.Device)
	}
	d.conn = dev
	return nil
}

// Close implements ospi.Driver.
func (d *Driver) Close() error {
	if d.conn == nil {
		return &ospi.DriverError{Operation: "close", Code: ospi.CodeNotOpen}
	}
	conn := d.conn
	d.conn = nil
	return errors.Trace(conn.Close())
}

// SetProtocol implements ospi.Driver. Only extended SPI is supported.
func (d *Driver) SetProtocol(p ospi.Protocol) error {
	if d.conn == nil {
		return &ospi.DriverError{Operation: "set protocol", Code: ospi.CodeNotOpen}
	}
	if p != ospi.ProtocolExtendedSPI {
		return &ospi.DriverError{Operation: "set protocol " + p.String(), Code: ospi.CodeUnsupported}
	}
	return nil
}

// SetReset implements ospi.Driver. Releasing reset returns the device to
// its power-on address width.
func (d *Driver) SetReset(high bool) error {
	if d.conn == nil {
		return &ospi.DriverError{Operation: "set reset", Code: ospi.CodeNotOpen}
	}
	if err := d.reset.Set(high); err != nil {
		return errors.Annotate(err, "reset line")
	}
	if high {
		d.addrLen = d.cfg.AddressLength
	}
	return nil
}

// DirectTransfer implements ospi.Driver.
func (d *Driver) DirectTransfer(t *ospi.DirectTransfer, dir ospi.Direction) error {
	if d.conn == nil {
		return &ospi.DriverError{Operation: "direct transfer", Code: ospi.CodeNotOpen}
	}
	tx, err := ospi.EncodeDirectTransfer(t, dir)
	if err != nil {
		return &ospi.DriverError{Operation: "direct transfer", Code: ospi.CodeInvalidArgument}
	}

	rx := make([]byte, len(tx))
	if err := d.conn.Tx(tx, rx); err != nil {
		return errors.Annotatef(err, "direct transfer 0x%02X", t.Command)
	}

	if dir == ospi.DirRead {
		return errors.Trace(ospi.DecodeDirectRead(t, rx))
	}
	d.trackAddressMode(t)
	return nil
}

// Write implements ospi.Driver. The write is split into pages; the caller's
// write enable covers the first page and the driver re-enables and waits for
// each following one.
func (d *Driver) Write(src []byte, addr uint32) error {
	if d.conn == nil {
		return &ospi.DriverError{Operation: "write", Code: ospi.CodeNotOpen}
	}
	if len(src) == 0 {
		return &ospi.DriverError{Operation: "write", Code: ospi.CodeInvalidArgument}
	}

	for i, c := range ospi.PageChunks(addr, len(src)) {
		if i > 0 {
			if err := d.waitIdle(); err != nil {
				return errors.Annotatef(err, "page 0x%08X", c.Address)
			}
			if err := d.writeEnable(); err != nil {
				return errors.Annotatef(err, "page 0x%08X", c.Address)
			}
		}

		tx, err := ospi.BuildPageProgram(c.Address, d.addrLen, src[c.Offset:c.Offset+c.Length])
		if err != nil {
			return &ospi.DriverError{Operation: "write", Code: ospi.CodeInvalidArgument}
		}
		if err := d.conn.Tx(tx, make([]byte, len(tx))); err != nil {
			return errors.Annotatef(err, "program page 0x%08X", c.Address)
		}
	}
	return nil
}

// Read implements ospi.Driver, splitting reads that exceed MaxTransfer.
func (d *Driver) Read(dst []byte, addr uint32) error {
	if d.conn == nil {
		return &ospi.DriverError{Operation: "read", Code: ospi.CodeNotOpen}
	}
	if len(dst) == 0 {
		return &ospi.DriverError{Operation: "read", Code: ospi.CodeInvalidArgument}
	}

	chunk := d.cfg.MaxTransfer - 1 - int(d.addrLen)
	if chunk <= 0 {
		return &ospi.DriverError{Operation: "read", Code: ospi.CodeInvalidArgument}
	}

	for off := 0; off < len(dst); off += chunk {
		n := len(dst) - off
		if n > chunk {
			n = chunk
		}
		tx, err := ospi.BuildRead(addr+uint32(off), d.addrLen, n)
		if err != nil {
			return &ospi.DriverError{Operation: "read", Code: ospi.CodeInvalidArgument}
		}
		rx := make([]byte, len(tx))
		if err := d.conn.Tx(tx, rx); err != nil {
			return errors.Annotatef(err, "read 0x%08X", addr+uint32(off))
		}
		copy(dst[off:off+n], rx[len(rx)-n:])
	}
	return nil
}

// Status implements ospi.Driver.
func (d *Driver) Status() (ospi.Status, error) {
	if d.conn == nil {
		return ospi.Status{}, &ospi.DriverError{Operation: "status", Code: ospi.CodeNotOpen}
	}
	tx := []byte{ospi.OpReadStatus, 0x00}
	rx := make([]byte, len(tx))
	if err := d.conn.Tx(tx, rx); err != nil {
		return ospi.Status{}, errors.Annotate(err, "read status")
	}
	return ospi.ParseStatus(rx[1]), nil
}

func (d *Driver) writeEnable() error {
	tx := []byte{ospi.OpWriteEnable}
	return errors.Annotate(d.conn.Tx(tx, make([]byte, 1)), "write enable")
}

func (d *Driver) waitIdle() error {
	deadline := time.Now().Add(d.cfg.PageTimeout)
	for {
		s, err := d.Status()
		if err != nil {
			return err
		}
		if !s.WriteInProgress {
			return nil
		}
		if time.Now().After(deadline) {
			return &ospi.DriverError{Operation: "wait page", Code: ospi.CodeTimeout}
		}
		time.Sleep(d.cfg.PollInterval)
	}
}

// trackAddressMode follows writes to the address mode register so buffered
// accesses use the width the device expects.
func (d *Driver) trackAddressMode(t *ospi.DirectTransfer) {
	if t.Command != ospi.OpWriteVolatileConfig || t.Address != ospi.VolatileConfigAddressMode {
		return
	}
	if t.Data&0x01 == 0 {
		d.addrLen = 4
	} else {
		d.addrLen = 3
	}
}
