package spidev

import (
	"fmt"
	"os"

	"github.com/juju/errors"
)

// ResetLine drives the device reset pin. Set(false) asserts reset.
type ResetLine interface {
	Set(high bool) error
}

// noReset is used when the board has no controllable reset pin.
type noReset struct{}

func (noReset) Set(bool) error { return nil }

// GPIOValue drives a reset pin through a sysfs GPIO value file. The GPIO
// must already be exported and configured as an output.
type GPIOValue struct {
	Path string
}

// SysfsGPIO returns the reset line for an exported sysfs GPIO number.
func SysfsGPIO(n int) *GPIOValue {
	return &GPIOValue{Path: fmt.Sprintf("/sys/class/gpio/gpio%d/value", n)}
}

// Set writes the level to the value file.
func (g *GPIOValue) Set(high bool) error {
	v := []byte("0")
	if high {
		v = []byte("1")
	}
	if err := os.WriteFile(g.Path, v, 0); err != nil {
		return errors.Annotatef(err, "write %s", g.Path)
	}
	return nil
}
