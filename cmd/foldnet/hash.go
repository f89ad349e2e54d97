package foldnet

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foldnet-project/foldnet/pkg/gro"
)

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [gro file]",
		Short: "Print the structural fingerprint of a coordinate file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fingerprint, err := gro.Fingerprint(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fingerprint)
			return nil
		},
	}
}
