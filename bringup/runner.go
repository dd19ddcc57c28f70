package bringup

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/moffa90/go-ospinor/ospi"
	"github.com/moffa90/go-ospinor/pattern"
)

// PatternSize is the size of the test pattern in bytes (one program page).
const PatternSize = ospi.PageSize

// Buffers holds the caller-owned write and read buffers of one bring-up run.
type Buffers struct {
	Write [PatternSize]byte
	Read  [PatternSize]byte
}

// NewBuffers returns buffers with Write holding the incrementing pattern.
func NewBuffers() *Buffers {
	b := &Buffers{}
	b.Fill()
	return b
}

// Fill writes the incrementing pattern into Write.
func (b *Buffers) Fill() {
	pattern.Fill(b.Write[:])
}

// Reset refills Write and clears Read so the buffers can be used for another run.
func (b *Buffers) Reset() {
	b.Fill()
	b.Read = [PatternSize]byte{}
}

// Step identifies a step of the bring-up sequence.
type Step int

// Steps of the bring-up sequence, in execution order.
const (
	StepNone Step = iota
	StepOpen
	StepSetProtocol
	StepReset
	StepReadID
	StepAddressMode
	StepReadFlagStatus
	StepReadVolatileConfig
	StepErase
	StepEraseStatus
	StepWrite
	StepWaitWrite
	StepReadback
	StepVerify
)

func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepOpen:
		return "open"
	case StepSetProtocol:
		return "set protocol"
	case StepReset:
		return "reset"
	case StepReadID:
		return "read id"
	case StepAddressMode:
		return "address mode"
	case StepReadFlagStatus:
		return "read flag status"
	case StepReadVolatileConfig:
		return "read volatile config"
	case StepErase:
		return "chip erase"
	case StepEraseStatus:
		return "erase status"
	case StepWrite:
		return "write"
	case StepWaitWrite:
		return "wait write"
	case StepReadback:
		return "readback"
	case StepVerify:
		return "verify"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Runner executes the flash bring-up sequence against a driver.
//
// A Runner holds no per-run state; each Run works on the Buffers it is given.
// Runs against the same driver must not overlap.
type Runner struct {
	driver ospi.Driver
	config Config
}

// New creates a new Runner with the given driver and options.
//
// Example:
//
//	runner := bringup.New(drv,
//	    bringup.WithLogger(logger),
//	    bringup.WithWriteTimeout(50*time.Millisecond),
//	)
func New(drv ospi.Driver, opts ...Option) *Runner {
	if drv == nil {
		panic("driver cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Runner{
		driver: drv,
		config: cfg,
	}
}

// Config returns a copy of the runner configuration.
func (r *Runner) Config() Config {
	return r.config
}

type stage struct {
	step  Step
	phase string
	run   func(ctx context.Context, buf *Buffers) error
}

func (r *Runner) stages() []stage {
	return []stage{
		{StepOpen, PhaseInit, func(context.Context, *Buffers) error {
			return r.driver.Open()
		}},
		{StepSetProtocol, PhaseInit, func(context.Context, *Buffers) error {
			return r.driver.SetProtocol(ospi.ProtocolExtendedSPI)
		}},
		{StepReset, PhaseReset, func(ctx context.Context, _ *Buffers) error {
			return r.ResetDevice(ctx)
		}},
		{StepReadID, PhaseIdentify, func(context.Context, *Buffers) error {
			return r.identify()
		}},
		{StepAddressMode, PhaseConfigure, func(context.Context, *Buffers) error {
			return r.writeEnabled(ospi.TransferWriteAddressMode)
		}},
		{StepReadFlagStatus, PhaseConfigure, func(context.Context, *Buffers) error {
			return r.checkFlagStatus()
		}},
		{StepReadVolatileConfig, PhaseConfigure, func(context.Context, *Buffers) error {
			return r.checkVolatileConfig()
		}},
		{StepErase, PhaseErase, func(context.Context, *Buffers) error {
			return r.writeEnabled(ospi.TransferChipErase)
		}},
		{StepEraseStatus, PhaseErase, func(ctx context.Context, _ *Buffers) error {
			return r.eraseStatus(ctx)
		}},
		{StepWrite, PhaseProgram, func(_ context.Context, buf *Buffers) error {
			if err := r.WriteEnable(); err != nil {
				return err
			}
			return r.driver.Write(buf.Write[:], r.config.TargetAddress)
		}},
		{StepWaitWrite, PhaseProgram, func(ctx context.Context, _ *Buffers) error {
			return r.WaitWriteComplete(ctx, r.config.WriteTimeout)
		}},
		{StepReadback, PhaseVerify, func(_ context.Context, buf *Buffers) error {
			return r.driver.Read(buf.Read[:], r.config.TargetAddress)
		}},
		{StepVerify, PhaseVerify, func(_ context.Context, buf *Buffers) error {
			return Compare(buf.Write[:], buf.Read[:])
		}},
	}
}

// Run performs the complete bring-up sequence:
//  1. Open the driver and select extended SPI
//  2. Pulse the reset line
//  3. Check the device ID against the accepted variants
//  4. Switch to 4-byte addressing and read back the flag status and
//     volatile configuration registers
//  5. Erase the chip
//  6. Write the test pattern and wait for completion
//  7. Read it back and compare
//
// Each step is checked once; the first failure stops the sequence and is
// returned as a *StepError. There are no retries.
//
// The driver is left open; the caller owns its lifetime.
//
// Example:
//
//	buf := bringup.NewBuffers()
//	if err := runner.Run(ctx, buf); err != nil {
//	    log.Fatalf("bring-up failed at %s: %v", bringup.FailedStep(err), err)
//	}
func (r *Runner) Run(ctx context.Context, buf *Buffers) error {
	if buf == nil {
		return fmt.Errorf("buffers cannot be nil")
	}

	startTime := time.Now()
	if r.config.RefillPattern {
		buf.Fill()
	}

	stages := r.stages()
	for i, st := range stages {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: st.step, Err: fmt.Errorf("cancelled: %w", err)}
		}

		r.reportProgress(Progress{
			Phase:       st.phase,
			Step:        st.step,
			StepIndex:   i + 1,
			TotalSteps:  len(stages),
			Percentage:  float64(i) / float64(len(stages)) * 100,
			ElapsedTime: time.Since(startTime),
		})

		if err := st.run(ctx, buf); err != nil {
			r.logError("bring-up step failed", "step", st.step.String(), "error", err)
			return &StepError{Step: st.step, Err: err}
		}
		r.logDebug("step done", "step", st.step.String())
	}

	r.reportProgress(Progress{
		Phase:       PhaseComplete,
		StepIndex:   len(stages),
		TotalSteps:  len(stages),
		Percentage:  100,
		ElapsedTime: time.Since(startTime),
	})

	r.logInfo("bring-up complete",
		"address", fmt.Sprintf("0x%08X", r.config.TargetAddress),
		"bytes", PatternSize,
		"elapsed", time.Since(startTime).String(),
	)

	return nil
}

// ResetDevice pulses the reset line: low for ResetPulse, then high and a
// wait of ResetSetup.
func (r *Runner) ResetDevice(ctx context.Context) error {
	if err := r.driver.SetReset(false); err != nil {
		return fmt.Errorf("assert reset: %w", err)
	}
	if err := sleep(ctx, r.config.ResetPulse); err != nil {
		return err
	}
	if err := r.driver.SetReset(true); err != nil {
		return fmt.Errorf("release reset: %w", err)
	}
	return sleep(ctx, r.config.ResetSetup)
}

// ReadDeviceID reads the device identification value.
func (r *Runner) ReadDeviceID() (uint32, error) {
	return r.Transfer(ospi.TransferReadID, ospi.DirRead)
}

// WriteEnable sets the device write enable latch.
func (r *Runner) WriteEnable() error {
	if _, err := r.Transfer(ospi.TransferWriteEnable, ospi.DirWrite); err != nil {
		return fmt.Errorf("write enable: %w", err)
	}
	return nil
}

// Transfer issues the descriptor for kind in the given direction and returns
// the data field after the transfer.
func (r *Runner) Transfer(kind ospi.TransferKind, dir ospi.Direction) (uint32, error) {
	t := r.config.Table.Lookup(kind)
	if err := r.driver.DirectTransfer(&t, dir); err != nil {
		return 0, fmt.Errorf("%s: %w", kind, err)
	}
	return t.Data, nil
}

// WaitWriteComplete polls the device status until no write is in progress.
// The status is polled at least once; once budget has elapsed with the device
// still busy a *TimeoutError is returned.
func (r *Runner) WaitWriteComplete(ctx context.Context, budget time.Duration) error {
	return r.waitIdle(ctx, "write", budget)
}

func (r *Runner) waitIdle(ctx context.Context, op string, budget time.Duration) error {
	start := time.Now()
	polls := 0
	for {
		status, err := r.driver.Status()
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		polls++
		if !status.WriteInProgress {
			r.logDebug("device idle", "operation", op, "polls", polls)
			return nil
		}
		if time.Since(start) >= budget {
			return &TimeoutError{Operation: op, Budget: budget}
		}
		if err := sleep(ctx, r.config.PollInterval); err != nil {
			return err
		}
	}
}

func (r *Runner) identify() error {
	id, err := r.ReadDeviceID()
	if err != nil {
		return err
	}
	r.logInfo("device id", "id", ospi.FormatID(id))

	if !ospi.IsAcceptedID(id, r.config.AcceptedIDs) {
		return &DeviceIDError{Actual: id, Accepted: r.config.AcceptedIDs}
	}
	return nil
}

// writeEnabled sets the write enable latch and then issues kind as a write.
func (r *Runner) writeEnabled(kind ospi.TransferKind) error {
	if err := r.WriteEnable(); err != nil {
		return err
	}
	_, err := r.Transfer(kind, ospi.DirWrite)
	return err
}

// readEnabled sets the write enable latch and then issues kind as a read.
func (r *Runner) readEnabled(kind ospi.TransferKind) (uint32, error) {
	if err := r.WriteEnable(); err != nil {
		return 0, err
	}
	return r.Transfer(kind, ospi.DirRead)
}

func (r *Runner) checkFlagStatus() error {
	v, err := r.readEnabled(ospi.TransferReadFlagStatus)
	if err != nil {
		return err
	}
	flags := ospi.ParseFlagStatus(byte(v))
	r.logDebug("flag status",
		"value", fmt.Sprintf("0x%02X", v),
		"address_bytes", flags.AddressLength(),
	)

	if r.config.StrictRegisterCheck && !flags.Address4Byte {
		return &RegisterError{
			Register: "flag status",
			Expected: ospi.FlagAddress4Byte,
			Actual:   v,
		}
	}
	return nil
}

func (r *Runner) checkVolatileConfig() error {
	v, err := r.readEnabled(ospi.TransferReadVolatileConfig)
	if err != nil {
		return err
	}
	r.logDebug("volatile config", "value", fmt.Sprintf("0x%02X", v))

	if r.config.StrictRegisterCheck && v != ospi.IOModeExtendedSPI {
		return &RegisterError{
			Register: "volatile config",
			Expected: ospi.IOModeExtendedSPI,
			Actual:   v,
		}
	}
	return nil
}

// eraseStatus reads the status once after the erase command. The value is
// only logged unless WaitAfterErase is set.
func (r *Runner) eraseStatus(ctx context.Context) error {
	if r.config.WaitAfterErase {
		return r.waitIdle(ctx, "chip erase", r.config.EraseTimeout)
	}

	v, err := r.Transfer(ospi.TransferReadStatus, ospi.DirRead)
	if err != nil {
		r.logError("status after erase unavailable", "error", err)
		return nil
	}
	status := ospi.ParseStatus(byte(v))
	r.logDebug("status after erase",
		"value", fmt.Sprintf("0x%02X", v),
		"write_in_progress", status.WriteInProgress,
	)
	return nil
}

// Compare checks got against want byte by byte and reports the first
// differing index.
func Compare(want, got []byte) error {
	n := len(want)
	if len(got) < n {
		n = len(got)
	}
	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			return &MismatchError{Index: i, Expected: want[i], Actual: got[i]}
		}
	}
	if len(want) != len(got) {
		return fmt.Errorf("length mismatch: wrote %d bytes, read %d", len(want), len(got))
	}
	return nil
}

// WaitUntilIdle polls drv until no write is in progress, giving up after
// maxPolls status reads. A maxPolls of zero means math.MaxUint32.
func WaitUntilIdle(ctx context.Context, drv ospi.Driver, maxPolls uint32) error {
	if maxPolls == 0 {
		maxPolls = math.MaxUint32
	}

	for remaining := maxPolls; remaining > 0; remaining-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		status, err := drv.Status()
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		if !status.WriteInProgress {
			return nil
		}
	}

	return &TimeoutError{Operation: "wait until idle", Polls: maxPolls}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reportProgress calls the progress callback if configured.
func (r *Runner) reportProgress(progress Progress) {
	if r.config.ProgressCallback != nil {
		r.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (r *Runner) logDebug(msg string, keysAndValues ...interface{}) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (r *Runner) logInfo(msg string, keysAndValues ...interface{}) {
	if r.config.Logger != nil {
		r.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (r *Runner) logError(msg string, keysAndValues ...interface{}) {
	if r.config.Logger != nil {
		r.config.Logger.Error(msg, keysAndValues...)
	}
}
