package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/portlet/internal/config"
	"github.com/aretw0/portlet/pkg/adapters/loam"
	"github.com/aretw0/portlet/pkg/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a config file and its preference definitions",
	Long: `Parses the file strictly (unknown keys are errors), checks the store settings
and verifies that every default satisfies the declared schema, including the
definitions found in the definitions directory.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			path = config.DefaultName + ".yaml"
		}
		if err := runValidate(cmd.Context(), cmd, path); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Config is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	c, err := config.Parse(f)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Portlet", "Source", "Defaults", "Read-only", "Typed")
	for _, name := range c.PortletNames() {
		def, _ := c.Definition(name)
		table.Append(name, "config", fmt.Sprint(len(def.Defaults)), fmt.Sprint(len(def.ReadOnly)), fmt.Sprint(len(def.Types)))
	}

	if c.Definitions != "" {
		docs, err := loam.Open(c.Definitions)
		if err != nil {
			return err
		}
		names, err := docs.ListDefinitions(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			def, err := docs.LoadDefinition(ctx, name)
			if err != nil {
				return err
			}
			s, err := schema.ParseTypeMap(def.Types)
			if err != nil {
				return fmt.Errorf("definition %s: %w", name, err)
			}
			if err := schema.Validate(s, def.Defaults); err != nil {
				return fmt.Errorf("definition %s defaults: %w", name, err)
			}
			table.Append(name, c.Definitions, fmt.Sprint(len(def.Defaults)), fmt.Sprint(len(def.ReadOnly)), fmt.Sprint(len(def.Types)))
		}
	}
	return table.Render()
}
