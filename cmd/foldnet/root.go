// Package foldnet implements the validator node CLI.
package foldnet

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func Execute(version string) {
	rootCmd := NewRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "foldnet",
		Short:   "Validator node for the foldnet protein-folding compute network",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHashCmd())
	return rootCmd
}
