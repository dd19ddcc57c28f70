// Package bringup runs the bring-up smoke test of an external OSPI NOR flash.
//
// # Overview
//
// This package executes one linear test sequence against an ospi.Driver:
//   - Opening the driver and selecting extended (1S-1S-1S) SPI
//   - Pulsing the hardware reset line
//   - Checking the device ID against the accepted part variants
//   - Switching to 4-byte addressing and reading back configuration registers
//   - Erasing the chip
//   - Writing a 256-byte incrementing pattern and waiting for completion
//   - Reading the pattern back and comparing it byte by byte
//
// # Basic Usage
//
//	// User provides the peripheral driver (ospi.Driver)
//	drv := spidev.New(spidev.Config{Device: "/dev/spidev0.0"})
//	defer drv.Close()
//
//	runner := bringup.New(drv)
//	buf := bringup.NewBuffers()
//	if err := runner.Run(context.Background(), buf); err != nil {
//	    log.Fatalf("bring-up failed at %s: %v", bringup.FailedStep(err), err)
//	}
//
// # Configuration Options
//
//	runner := bringup.New(drv,
//	    bringup.WithLogger(myLogger),
//	    bringup.WithProgressCallback(progressFunc),
//	    bringup.WithTargetAddress(0x2000),
//	    bringup.WithWriteTimeout(50*time.Millisecond),
//	    bringup.WithWaitAfterErase(true),
//	    bringup.WithStrictRegisterCheck(true),
//	)
//
// # Error Handling
//
// The sequence stops at the first failure and never retries. The returned
// error is a *StepError naming the step, wrapping one of:
//   - DeviceIDError: the device is not an accepted variant
//   - RegisterError: a register read back an unexpected value (strict mode)
//   - TimeoutError: the device stayed busy beyond the wait budget
//   - MismatchError: the readback differs from the written pattern
//   - ospi.DriverError: the driver rejected a call
//
// Use FailedStep to get the step and errors.As to reach the cause:
//
//	var mm *bringup.MismatchError
//	if errors.As(err, &mm) {
//	    fmt.Printf("first bad byte at %d\n", mm.Index)
//	}
package bringup
