// Command ospiprobe runs the octal SPI NOR bring-up sequence against a
// simulated device or a spidev node and reports the step that failed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"github.com/moffa90/go-ospinor/bringup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	glog.Flush()

	if err != nil {
		if step := bringup.FailedStep(err); step != bringup.StepNone {
			fmt.Fprintf(os.Stderr, "trapped at step %d (%s)\n", int(step), step)
		}
		os.Exit(1)
	}
}
