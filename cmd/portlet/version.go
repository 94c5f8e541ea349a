package main

import (
	"fmt"

	"github.com/aretw0/portlet"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of portlet",
	// The version needs no config.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "portlet version %s (contract %d.%d)\n",
			portlet.Version, portlet.MajorVersion, portlet.MinorVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
