package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/portlet/internal/config"
	"github.com/aretw0/portlet/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "portlet",
	Short: "Portlet is a host toolkit for portlet preferences and rendering",
	Long: `Portlet manages the stored preference sets of portlet windows and renders
portlets against them. Configuration is read from portlet.yaml and PORTLET_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Read(path)
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			c.LogLevel = lvl
		}
		level, err := logging.ParseLevel(c.LogLevel)
		if err != nil {
			return err
		}
		cfg = c
		logger = logging.New(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./portlet.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}
