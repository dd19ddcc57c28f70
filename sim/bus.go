package sim

import (
	"encoding/binary"

	"github.com/moffa90/go-ospinor/ospi"
)

// readCommands are the direct transfers that clock data out of the device.
var readCommands = map[byte]bool{
	ospi.OpReadStatus:         true,
	ospi.OpReadID:             true,
	ospi.OpReadFlagStatus:     true,
	ospi.OpReadVolatileConfig: true,
}

// Bus exposes a Flash as a full-duplex SPI connection. Frames are decoded
// with the layouts of the default transfer table and dispatched to the
// Flash, so a wire-level driver can be tested against the same device
// model. Bus also drives the Flash reset line.
type Bus struct {
	flash   *Flash
	layouts map[byte]ospi.DirectTransfer
}

// NewBus opens f and returns a Bus for it.
func NewBus(f *Flash) (*Bus, error) {
	if err := f.Open(); err != nil {
		return nil, err
	}

	layouts := make(map[byte]ospi.DirectTransfer)
	for _, d := range ospi.DefaultDescriptors() {
		layouts[byte(d.Command)] = d
	}
	return &Bus{flash: f, layouts: layouts}, nil
}

// Flash returns the device behind the bus.
func (b *Bus) Flash() *Flash {
	return b.flash
}

// Tx decodes one frame. r must be as long as w.
func (b *Bus) Tx(w, r []byte) error {
	if len(w) == 0 || len(r) != len(w) {
		return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
	}

	switch op := w[0]; op {
	case ospi.OpPageProgram, ospi.OpPageProgram4B:
		addr, n := frameAddress(w, op == ospi.OpPageProgram4B)
		if n >= len(w) {
			return fail(OpWrite, ospi.CodeInvalidArgument)
		}
		return b.flash.Write(w[n:], addr)

	case ospi.OpRead, ospi.OpRead4B:
		addr, n := frameAddress(w, op == ospi.OpRead4B)
		if n >= len(w) {
			return fail(OpRead, ospi.CodeInvalidArgument)
		}
		return b.flash.Read(r[n:], addr)
	}

	return b.direct(w, r)
}

func (b *Bus) direct(w, r []byte) error {
	d, ok := b.layouts[w[0]]
	if !ok {
		d = ospi.DirectTransfer{Command: uint16(w[0]), CommandLength: 1}
	}
	dir := ospi.DirWrite
	if readCommands[w[0]] {
		dir = ospi.DirRead
	}

	hdr := 1 + int(d.AddressLength) + (int(d.DummyCycles)+7)/8
	if len(w) != hdr+int(d.DataLength) {
		return fail(OpDirectTransfer, ospi.CodeInvalidArgument)
	}
	if d.AddressLength > 0 {
		d.Address, _ = frameAddress(w, d.AddressLength == 4)
	}

	d.Data = 0
	if dir == ospi.DirWrite {
		for i, v := range w[hdr:] {
			d.Data |= uint32(v) << (8 * i)
		}
	}

	if err := b.flash.DirectTransfer(&d, dir); err != nil {
		return err
	}

	if dir == ospi.DirRead {
		for i := range r[hdr:] {
			r[hdr+i] = byte(d.Data >> (8 * i))
		}
	}
	return nil
}

// Set drives the reset line.
func (b *Bus) Set(high bool) error {
	return b.flash.SetReset(high)
}

// Close closes the Flash.
func (b *Bus) Close() error {
	return b.flash.Close()
}

// frameAddress decodes the big-endian address that follows the opcode and
// returns it with the offset of the first byte after it.
func frameAddress(w []byte, four bool) (uint32, int) {
	var buf [4]byte
	if four {
		if len(w) < 5 {
			return 0, len(w)
		}
		copy(buf[:], w[1:5])
		return binary.BigEndian.Uint32(buf[:]), 5
	}
	if len(w) < 4 {
		return 0, len(w)
	}
	copy(buf[1:], w[1:4])
	return binary.BigEndian.Uint32(buf[:]), 4
}
