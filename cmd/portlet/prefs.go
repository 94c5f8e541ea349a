package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/portlet/internal/setup"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/observability"
	"github.com/aretw0/portlet/pkg/preferences"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage stored preference sets",
	Long: `List, inspect, change and remove the preference sets of portlet windows.
Changes go through the validator of the portlet definition; a rejected set is never stored.`,
}

var prefsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored preference sets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(func(stack *setup.Stack) error {
			keys, err := stack.Manager.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "No preference sets stored.")
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.Header("Key", "Entries")
			for _, key := range keys {
				values, err := stack.Manager.Load(cmd.Context(), key)
				if err != nil {
					table.Append(key, "error: "+err.Error())
					continue
				}
				table.Append(key, fmt.Sprint(len(values)))
			}
			return table.Render()
		})
	},
}

var prefsGetCmd = &cobra.Command{
	Use:   "get <portlet> <key>",
	Short: "Show a preference set merged with the portlet defaults",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(func(stack *setup.Stack) error {
			p, err := stack.Manager.OpenFor(cmd.Context(), args[0], args[1], domain.PhaseRender)
			if err != nil {
				return err
			}
			return printPreferences(cmd.OutOrStdout(), p)
		})
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <portlet> <key> <name=value>...",
	Short: "Change preferences and commit the set",
	Long: `Each assignment replaces the values of one preference. Repeat a name to
give it several values: feeds=world feeds=sports.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		assignments, err := parseAssignments(args[2:])
		if err != nil {
			return err
		}
		return commit(cmd, args[0], args[1], func(p *preferences.Preferences) error {
			for _, a := range assignments {
				if err := p.SetValues(a.name, a.values); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset <portlet> <key> <name>...",
	Short: "Restore preferences to their defaults and commit the set",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commit(cmd, args[0], args[1], func(p *preferences.Preferences) error {
			for _, name := range args[2:] {
				if err := p.Reset(name); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var prefsRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove one or more preference sets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(func(stack *setup.Stack) error {
			var errs []error
			for _, key := range args {
				if err := stack.Manager.Delete(cmd.Context(), key); err != nil {
					errs = append(errs, fmt.Errorf("removing %s: %w", key, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed preference set '%s'\n", key)
			}
			return errors.Join(errs...)
		})
	},
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsLsCmd, prefsGetCmd, prefsSetCmd, prefsResetCmd, prefsRmCmd)
}

func withStack(fn func(*setup.Stack) error) error {
	stack, err := setupStack(observability.LogHooks(logger))
	if err != nil {
		return err
	}
	defer stack.Close()
	return fn(stack)
}

func commit(cmd *cobra.Command, portletName, key string, change func(*preferences.Preferences) error) error {
	return withStack(func(stack *setup.Stack) error {
		p, err := stack.Manager.OpenFor(cmd.Context(), portletName, key, domain.PhaseAction)
		if err != nil {
			return err
		}
		if err := change(p); err != nil {
			return err
		}
		if err := p.Store(cmd.Context()); err != nil {
			var perr *domain.Error
			if errors.As(err, &perr) && perr.Kind == domain.KindValidator {
				return fmt.Errorf("preferences rejected, failed keys: %s: %w", strings.Join(perr.FailedKeyList(), ", "), err)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored preference set '%s'\n", key)
		return nil
	})
}

func printPreferences(w io.Writer, p *preferences.Preferences) error {
	names := p.Names()
	if len(names) == 0 {
		fmt.Fprintln(w, "No preferences.")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Values", "Read-only")
	for _, name := range names {
		ro := ""
		if p.IsReadOnly(name) {
			ro = "yes"
		}
		table.Append(name, strings.Join(p.Values(name, nil), ", "), ro)
	}
	return table.Render()
}

type assignment struct {
	name   string
	values []string
}

// parseAssignments groups name=value pairs by name, keeping first-seen order.
func parseAssignments(args []string) ([]assignment, error) {
	var out []assignment
	index := map[string]int{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, want name=value", arg)
		}
		if i, seen := index[name]; seen {
			out[i].values = append(out[i].values, value)
			continue
		}
		index[name] = len(out)
		out = append(out, assignment{name: name, values: []string{value}})
	}
	return out, nil
}
