package sim

import (
	"bytes"
	"testing"

	"github.com/moffa90/go-ospinor/ospi"
)

func newBus(t *testing.T, opts ...Option) *Bus {
	t.Helper()
	b, err := NewBus(New(opts...))
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	return b
}

func tx(t *testing.T, b *Bus, w ...byte) []byte {
	t.Helper()
	r := make([]byte, len(w))
	if err := b.Tx(w, r); err != nil {
		t.Fatalf("Tx(% X): %v", w, err)
	}
	return r
}

func TestBusReadID(t *testing.T) {
	b := newBus(t, WithID(ospi.DeviceIDVariantB))

	r := tx(t, b, ospi.OpReadID, 0, 0, 0, 0)
	if !bytes.Equal(r[1:], []byte{0x34, 0x5A, 0x1A, 0x0F}) {
		t.Errorf("id bytes = % X", r[1:])
	}
}

func TestBusProgramAndRead(t *testing.T) {
	b := newBus(t)

	tx(t, b, ospi.OpWriteEnable)
	tx(t, b, ospi.OpPageProgram, 0x00, 0x10, 0x00, 0xDE, 0xAD)
	if got := b.Flash().Memory(0x1000, 2); !bytes.Equal(got, []byte{0xDE, 0xAD}) {
		t.Fatalf("memory = % X", got)
	}

	if r := tx(t, b, ospi.OpReadStatus, 0x00); r[1]&ospi.StatusWriteInProgress == 0 {
		t.Error("status after program should report a write in progress")
	}

	r := tx(t, b, ospi.OpRead, 0x00, 0x10, 0x00, 0, 0, 0)
	if !bytes.Equal(r[4:], []byte{0xDE, 0xAD, 0xFF}) {
		t.Errorf("read = % X", r[4:])
	}
}

func TestBusAddressMode(t *testing.T) {
	b := newBus(t)

	tx(t, b, ospi.OpWriteEnable)
	tx(t, b, ospi.OpWriteVolatileConfig, 0x00, 0x00, 0x05, ospi.AddressMode4Byte)
	if !b.Flash().Address4Byte() {
		t.Fatal("device not in 4-byte mode")
	}

	r := tx(t, b, ospi.OpReadVolatileConfig, 0x00, 0x00, 0x05, 0xFF, 0x00)
	if r[5] != ospi.AddressMode4Byte {
		t.Errorf("address mode register = 0x%02X", r[5])
	}

	if err := b.Set(false); err != nil {
		t.Fatal(err)
	}
	if err := b.Set(true); err != nil {
		t.Fatal(err)
	}
	if b.Flash().Address4Byte() {
		t.Error("reset through the bus did not restore 3-byte mode")
	}
}

func TestBusMalformedFrames(t *testing.T) {
	b := newBus(t)

	if err := b.Tx([]byte{ospi.OpReadID, 0}, make([]byte, 2)); ospi.CodeOf(err) != ospi.CodeInvalidArgument {
		t.Errorf("short read id: %v, want CodeInvalidArgument", err)
	}
	if err := b.Tx([]byte{ospi.OpWriteEnable}, nil); ospi.CodeOf(err) != ospi.CodeInvalidArgument {
		t.Errorf("short rx: %v, want CodeInvalidArgument", err)
	}
	if err := b.Tx([]byte{ospi.OpPageProgram, 0, 0, 0}, make([]byte, 4)); ospi.CodeOf(err) != ospi.CodeInvalidArgument {
		t.Errorf("empty program: %v, want CodeInvalidArgument", err)
	}
	if err := b.Tx([]byte{0xB7}, make([]byte, 1)); ospi.CodeOf(err) != ospi.CodeUnsupported {
		t.Errorf("unknown opcode: %v, want CodeUnsupported", err)
	}
}

func TestBusClose(t *testing.T) {
	b := newBus(t)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if b.Flash().IsOpen() {
		t.Error("flash still open")
	}
}
