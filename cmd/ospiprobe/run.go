package main

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-ospinor/bringup"
	"github.com/moffa90/go-ospinor/ospi"
	"github.com/moffa90/go-ospinor/pattern"
)

type runFlags struct {
	pattern      string
	dump         string
	target       uint32
	writeTimeout time.Duration
	waitErase    bool
	strict       bool
	quiet        bool
}

func newRunCmd(dev *deviceFlags) *cobra.Command {
	rf := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bring-up sequence",
		Long: `Run the full bring-up sequence: open, reset, identify, switch to 4-byte
addressing, check the registers, erase, program one page and verify it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBringUp(cmd, dev, rf)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&rf.pattern, "pattern", "p", "", "Intel HEX file with the page to program")
	f.StringVar(&rf.dump, "dump", "", "Write the page read back to this Intel HEX file")
	f.Uint32Var(&rf.target, "target", bringup.DefaultTargetAddress, "Flash offset of the test page")
	f.DurationVar(&rf.writeTimeout, "write-timeout", ospi.TimeWrite, "Page program time budget")
	f.BoolVar(&rf.waitErase, "wait-erase", false, "Wait for the chip erase to finish before programming")
	f.BoolVar(&rf.strict, "strict", false, "Fail on unexpected flag status or volatile config values")
	f.BoolVarP(&rf.quiet, "quiet", "q", false, "Do not print progress")
	return cmd
}

func runBringUp(cmd *cobra.Command, dev *deviceFlags, rf *runFlags) error {
	drv, err := dev.driver()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	opts := []bringup.Option{
		bringup.WithLogger(glogLogger{}),
		bringup.WithTargetAddress(rf.target),
		bringup.WithWriteTimeout(rf.writeTimeout),
		bringup.WithWaitAfterErase(rf.waitErase),
		bringup.WithStrictRegisterCheck(rf.strict),
	}
	if !rf.quiet {
		opts = append(opts, bringup.WithProgressCallback(func(p bringup.Progress) {
			if p.Phase == bringup.PhaseComplete {
				fmt.Fprintf(out, "[%-9s] 100.0%%\n", p.Phase)
				return
			}
			fmt.Fprintf(out, "[%-9s] %5.1f%% step %2d/%d %s\n",
				p.Phase, p.Percentage, p.StepIndex, p.TotalSteps, p.Step)
		}))
	}

	buf := bringup.NewBuffers()
	if rf.pattern != "" {
		img, err := pattern.Load(rf.pattern)
		if err != nil {
			return errors.Annotatef(err, "load %s", rf.pattern)
		}
		copy(buf.Write[:], img.Window(rf.target, bringup.PatternSize, 0xFF))
		opts = append(opts, bringup.WithRefillPattern(false))
		glog.Infof("loaded pattern from %s", rf.pattern)
	}

	runner := bringup.New(drv, opts...)
	defer func() {
		// the driver may not have been opened if the first step failed
		_ = drv.Close()
	}()

	if err := runner.Run(cmd.Context(), buf); err != nil {
		return err
	}

	if rf.dump != "" {
		if err := pattern.Save(rf.dump, rf.target, buf.Read[:]); err != nil {
			return errors.Annotatef(err, "dump %s", rf.dump)
		}
		glog.Infof("wrote readback to %s", rf.dump)
	}

	fmt.Fprintf(out, "PASS: %d bytes at 0x%08X verified\n", bringup.PatternSize, rf.target)
	return nil
}
