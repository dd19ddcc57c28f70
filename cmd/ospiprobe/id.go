package main

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-ospinor/bringup"
	"github.com/moffa90/go-ospinor/ospi"
)

func newIDCmd(dev *deviceFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Reset the device and print its ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, err := dev.driver()
			if err != nil {
				return err
			}
			if err := drv.Open(); err != nil {
				return errors.Trace(err)
			}
			defer func() { _ = drv.Close() }()

			if err := drv.SetProtocol(ospi.ProtocolExtendedSPI); err != nil {
				return errors.Trace(err)
			}

			runner := bringup.New(drv, bringup.WithLogger(glogLogger{}))
			if err := runner.ResetDevice(cmd.Context()); err != nil {
				return errors.Annotate(err, "reset")
			}
			id, err := runner.ReadDeviceID()
			if err != nil {
				return errors.Trace(err)
			}

			accepted := "unsupported"
			if ospi.IsAcceptedID(id, runner.Config().AcceptedIDs) {
				accepted = "supported"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", ospi.FormatID(id), accepted)
			return nil
		},
	}
}
