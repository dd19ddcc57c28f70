package main

import (
	"flag"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"golang.org/x/exp/io/spi"

	"github.com/moffa90/go-ospinor/ospi"
	"github.com/moffa90/go-ospinor/sim"
	"github.com/moffa90/go-ospinor/spidev"
)

// deviceFlags select and configure the device under test.
type deviceFlags struct {
	sim       bool
	simID     uint32
	wire      bool
	device    string
	speed     int64
	mode      int
	resetGPIO int
}

func newRootCmd() *cobra.Command {
	dev := &deviceFlags{}

	rootCmd := &cobra.Command{
		Use:          "ospiprobe",
		Short:        "Bring up an octal SPI NOR flash",
		Long:         `Resets, identifies, configures, erases, programs and verifies an octal SPI NOR flash.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&dev.sim, "sim", false, "Use the simulated flash instead of hardware")
	pf.Uint32Var(&dev.simID, "sim-id", ospi.DeviceIDVariantA, "Device ID reported by the simulated flash")
	pf.BoolVar(&dev.wire, "wire", false, "With --sim, drive the simulated flash through the spidev frame encoder")
	pf.StringVarP(&dev.device, "device", "d", "/dev/spidev0.0", "spidev node")
	pf.Int64Var(&dev.speed, "speed", 10000000, "SPI clock in Hz")
	pf.IntVar(&dev.mode, "mode", 0, "SPI clock mode (0-3)")
	pf.IntVar(&dev.resetGPIO, "reset-gpio", -1, "sysfs GPIO number wired to the reset pin, -1 for none")
	pf.AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(newRunCmd(dev), newIDCmd(dev), newPatternCmd())
	return rootCmd
}

// driver builds the driver selected by the flags. It is not opened.
func (f *deviceFlags) driver() (ospi.Driver, error) {
	if f.sim {
		flash := sim.New(sim.WithID(f.simID))
		if !f.wire {
			return flash, nil
		}
		bus, err := sim.NewBus(flash)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return spidev.New(spidev.Config{}, spidev.WithConn(bus), spidev.WithResetLine(bus)), nil
	}

	if f.mode < 0 || f.mode > 3 {
		return nil, errors.NotValidf("spi mode %d", f.mode)
	}

	var opts []spidev.Option
	if f.resetGPIO >= 0 {
		opts = append(opts, spidev.WithResetLine(spidev.SysfsGPIO(f.resetGPIO)))
	}
	return spidev.New(spidev.Config{
		Device:       f.device,
		Mode:         spi.Mode(f.mode),
		MaxSpeed:     f.speed,
		PageTimeout:  ospi.TimeWrite,
		PollInterval: 100 * time.Microsecond,
	}, opts...), nil
}
