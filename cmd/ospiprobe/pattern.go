package main

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-ospinor/bringup"
	"github.com/moffa90/go-ospinor/pattern"
)

func newPatternCmd() *cobra.Command {
	var target uint32

	cmd := &cobra.Command{
		Use:   "pattern <out.hex>",
		Short: "Write the default test page as Intel HEX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := pattern.Incrementing(bringup.PatternSize)
			if err := pattern.Save(args[0], target, data); err != nil {
				return errors.Annotatef(err, "save %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes at 0x%08X to %s\n", len(data), target, args[0])
			return nil
		},
	}
	cmd.Flags().Uint32Var(&target, "target", bringup.DefaultTargetAddress, "Flash offset of the page")
	return cmd
}
