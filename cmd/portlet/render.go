package main

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/aretw0/portlet"
	"github.com/aretw0/portlet/internal/setup"
	"github.com/aretw0/portlet/pkg/dispatcher"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/observability"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/aretw0/portlet/pkg/request"
	"github.com/aretw0/portlet/pkg/response"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <portlet>",
	Short: "Render the preference sheet of a portlet window",
	Long: `Runs one render of a preference sheet portlet against the stored set of a
window and prints the markup. The sheet includes a header resource through
the request dispatcher.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, _ := cmd.Flags().GetString("window")
		mode, _ := cmd.Flags().GetString("mode")
		state, _ := cmd.Flags().GetString("state")
		showMetrics, _ := cmd.Flags().GetBool("metrics")
		if window == "" {
			window = args[0]
		}

		reg := prometheus.NewRegistry()
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}
		hooks := observability.LogHooks(logger).Merge(metrics.Hooks())

		return withHookedStack(hooks, func(stack *setup.Stack) error {
			if err := renderSheet(cmd, stack, hooks, args[0], window, mode, state); err != nil {
				return err
			}
			if showMetrics {
				return printMetrics(cmd.ErrOrStderr(), reg)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().String("window", "", "Window id, also the preference set key (default: the portlet name)")
	renderCmd.Flags().String("mode", string(domain.ModeView), "Portlet mode: view, edit or help")
	renderCmd.Flags().String("state", string(domain.StateNormal), "Window state: normal, maximized or minimized")
	renderCmd.Flags().Bool("metrics", false, "Print the collected metrics to stderr")
}

func withHookedStack(hooks domain.LifecycleHooks, fn func(*setup.Stack) error) error {
	stack, err := setupStack(hooks)
	if err != nil {
		return err
	}
	defer stack.Close()
	return fn(stack)
}

func setupStack(hooks domain.LifecycleHooks) (*setup.Stack, error) {
	return setup.Build(cfg, logger, hooks)
}

func renderSheet(cmd *cobra.Command, stack *setup.Stack, hooks domain.LifecycleHooks, name, window, mode, state string) error {
	m, err := domain.NewPortletMode(mode)
	if err != nil {
		return err
	}
	s, err := domain.NewWindowState(state)
	if err != nil {
		return err
	}

	prefs, err := stack.Manager.OpenFor(cmd.Context(), name, window, domain.PhaseRender)
	if err != nil {
		return err
	}

	registry := dispatcher.New(dispatcher.WithLogger(logger), dispatcher.WithHooks(hooks))
	registry.HandleResource("/header", sheetHeader)
	app := portlet.NewAppContext("portlet-cli",
		portlet.WithRegistry(registry),
		portlet.WithContextLogger(logger),
	)
	inv, err := portlet.NewInvoker(sheetPortlet(), portlet.NewConfig(name, app, map[string]string{
		portlet.TitleParameter: "Preferences of " + name,
	}),
		portlet.WithHooks(hooks),
		portlet.WithLogger(logger),
		portlet.WithWindowID(window),
		portlet.WithSupportedModes(domain.ModeView, domain.ModeEdit, domain.ModeHelp),
	)
	if err != nil {
		return err
	}
	defer inv.Destroy()

	req := request.NewRender(
		request.WithContext(cmd.Context()),
		request.WithMode(m),
		request.WithState(s),
		request.WithPreferences(prefs),
	)
	resp := response.NewRender(req, response.WithWindowID(window), response.WithOutput(cmd.OutOrStdout()))
	if err := inv.Render(req, resp); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

// sheetPortlet lists preferences in view mode and offers a form in edit mode.
// Submitting the form stores the set; values are comma separated.
func sheetPortlet() *portlet.GenericPortlet {
	p := &portlet.GenericPortlet{}
	p.Action = func(req ports.ActionRequest, resp ports.ActionResponse) error {
		prefs := req.Preferences()
		for _, name := range req.ParameterNames() {
			if prefs.IsReadOnly(name) {
				continue
			}
			if err := prefs.SetValues(name, strings.Split(req.Parameter(name), ",")); err != nil {
				return err
			}
		}
		if err := prefs.Store(req.Context()); err != nil {
			return err
		}
		return resp.SetPortletMode(domain.ModeView)
	}
	p.View = func(req ports.RenderRequest, resp ports.RenderResponse) error {
		return writeSheet(p, req, resp, func(w ports.Writer, name string, values []string, ro bool) {
			mark := ""
			if ro {
				mark = " (read-only)"
			}
			fmt.Fprintf(w, "<tr><th>%s</th><td>%s%s</td></tr>",
				html.EscapeString(name), html.EscapeString(strings.Join(values, ", ")), mark)
		})
	}
	p.Edit = func(req ports.RenderRequest, resp ports.RenderResponse) error {
		action := resp.CreateActionURL()
		if err := action.SetPortletMode(domain.ModeView); err != nil {
			return err
		}
		w, err := open(p, req, resp)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, `<form id="%sform" method="post" action="%s"><table>`, resp.Namespace(), html.EscapeString(action.String()))
		prefs := req.Preferences()
		for _, name := range prefs.Names() {
			disabled := ""
			if prefs.IsReadOnly(name) {
				disabled = " disabled"
			}
			fmt.Fprintf(w, `<tr><th>%[1]s</th><td><input name="%[1]s" value="%[2]s"%[3]s></td></tr>`,
				html.EscapeString(name), html.EscapeString(strings.Join(prefs.Values(name, nil), ",")), disabled)
		}
		_, err = w.WriteString("</table></form>")
		return err
	}
	p.Help = func(req ports.RenderRequest, resp ports.RenderResponse) error {
		w, err := open(p, req, resp)
		if err != nil {
			return err
		}
		_, err = w.WriteString("<p>Use <code>portlet prefs set</code> to change these preferences.</p>")
		return err
	}
	return p
}

func writeSheet(p *portlet.GenericPortlet, req ports.RenderRequest, resp ports.RenderResponse, row func(w ports.Writer, name string, values []string, ro bool)) error {
	w, err := open(p, req, resp)
	if err != nil {
		return err
	}
	prefs := req.Preferences()
	fmt.Fprintf(w, `<table id="%ssheet">`, resp.Namespace())
	for _, name := range prefs.Names() {
		row(w, name, prefs.Values(name, nil), prefs.IsReadOnly(name))
	}
	_, err = w.WriteString("</table>")
	return err
}

// open sets the content type, includes the header resource and returns the writer.
func open(p *portlet.GenericPortlet, req ports.RenderRequest, resp ports.RenderResponse) (ports.Writer, error) {
	if err := resp.SetContentType(req.ResponseContentType()); err != nil {
		return nil, err
	}
	app, err := p.PortletContext()
	if err != nil {
		return nil, err
	}
	d, ok, err := app.RequestDispatcher("/header")
	if err != nil {
		return nil, err
	}
	if ok {
		if err := d.Include(req, resp); err != nil {
			return nil, err
		}
	}
	return resp.Writer()
}

func sheetHeader(req ports.RenderRequest, resp ports.RenderResponse) error {
	w, err := resp.Writer()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "<h1>%s mode</h1>", html.EscapeString(req.PortletMode().String()))
	return err
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Labels", "Value")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			value := ""
			switch {
			case m.GetCounter() != nil:
				value = fmt.Sprint(m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				value = fmt.Sprintf("%d samples", m.GetHistogram().GetSampleCount())
			}
			table.Append(mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return table.Render()
}
