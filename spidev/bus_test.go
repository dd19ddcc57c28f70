package spidev

import (
	"bytes"
	"context"
	"testing"

	"github.com/moffa90/go-ospinor/bringup"
	"github.com/moffa90/go-ospinor/ospi"
	"github.com/moffa90/go-ospinor/pattern"
	"github.com/moffa90/go-ospinor/sim"
)

func TestBringUpOverSimulatedBus(t *testing.T) {
	flash := sim.New(sim.WithWriteBusyPolls(3))
	bus, err := sim.NewBus(flash)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}

	drv := New(Config{}, WithConn(bus), WithResetLine(bus))
	runner := bringup.New(drv,
		bringup.WithResetTiming(0, 0),
		bringup.WithPollInterval(0),
	)

	buf := bringup.NewBuffers()
	if err := runner.Run(context.Background(), buf); err != nil {
		t.Fatalf("Run: %v\ncalls:\n%s", err, flash.Trace())
	}

	if drv.AddressLength() != 4 {
		t.Errorf("driver address length = %d, want 4", drv.AddressLength())
	}
	want := pattern.Incrementing(bringup.PatternSize)
	if got := flash.Memory(bringup.DefaultTargetAddress, bringup.PatternSize); !bytes.Equal(got, want) {
		t.Error("flash memory does not hold the pattern")
	}
	if !bytes.Equal(buf.Read[:], want) {
		t.Error("read buffer does not hold the pattern")
	}
}

func TestBringUpOverSimulatedBusCorruption(t *testing.T) {
	flash := sim.New(sim.WithReadCorruption(bringup.DefaultTargetAddress + 9))
	bus, err := sim.NewBus(flash)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}

	runner := bringup.New(New(Config{}, WithConn(bus), WithResetLine(bus)),
		bringup.WithResetTiming(0, 0),
		bringup.WithPollInterval(0),
	)

	err = runner.Run(context.Background(), bringup.NewBuffers())
	if bringup.FailedStep(err) != bringup.StepVerify {
		t.Fatalf("FailedStep = %s (%v), want verify", bringup.FailedStep(err), err)
	}
	if ospi.IsDriverError(err) {
		t.Error("a verify failure should not be a driver error")
	}
}

func TestThreeByteModeRejectsHighAddresses(t *testing.T) {
	flash := sim.New(sim.WithSize(32 << 20))
	bus, err := sim.NewBus(flash)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	drv := New(Config{}, WithConn(bus), WithResetLine(bus))
	if err := drv.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	desc := ospi.DefaultTable().Lookup(ospi.TransferWriteEnable)
	if err := drv.DirectTransfer(&desc, ospi.DirWrite); err != nil {
		t.Fatalf("write enable: %v", err)
	}
	if err := drv.Write([]byte{0x00, 0x11}, 1<<24); ospi.CodeOf(err) != ospi.CodeInvalidArgument {
		t.Errorf("Write at 16 MiB: %v, want CodeInvalidArgument", err)
	}
	if err := drv.Read(make([]byte, 2), 1<<24); ospi.CodeOf(err) != ospi.CodeInvalidArgument {
		t.Errorf("Read at 16 MiB: %v, want CodeInvalidArgument", err)
	}

	if got := flash.Memory(0, 2); !bytes.Equal(got, []byte{0xFF, 0xFF}) {
		t.Errorf("offset 0 = % X, want FF FF", got)
	}
	if got := flash.Memory(1<<24, 2); !bytes.Equal(got, []byte{0xFF, 0xFF}) {
		t.Errorf("offset 16 MiB = % X, want FF FF", got)
	}
}
