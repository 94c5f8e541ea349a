/*
Package portlet implements the request/response contract between a portal
container and the portlets it hosts.

A portlet is invoked in two phases. processAction receives an ActionRequest
carrying a one-shot body and may change the portlet mode, the window state
and the render parameters. render receives a RenderRequest without a body
and writes markup through a RenderResponse. Resources registered in a
dispatcher can be included into the render output; their status codes are
ignored and only their content and headers survive.

# Concept

The contract lives in pkg/ports. Reference implementations of every
interface live in their own packages (request, response, dispatcher,
preferences, session) and the root package ties them together:

  - GenericPortlet dispatches render by portlet mode to handler functions.
  - AppContext is the application view shared by every portlet.
  - Invoker drives one invocation: it checks the mode and window state,
    converts panics into portlet failures, emits lifecycle hooks and seals
    the response so references retained past the call fail.

# Usage

	p := &portlet.GenericPortlet{
		View: func(req ports.RenderRequest, resp ports.RenderResponse) error {
			if err := resp.SetContentType("text/html"); err != nil {
				return err
			}
			w, err := resp.Writer()
			if err != nil {
				return err
			}
			_, err = w.WriteString("<p>Hello</p>")
			return err
		},
	}

	app := portlet.NewAppContext("news")
	inv, err := portlet.NewInvoker(p, portlet.NewConfig("hello", app, nil))
	if err != nil {
		log.Fatal(err)
	}

	req := request.NewRender()
	resp := response.NewRender(req)
	if err := inv.Render(req, resp); err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(resp.Content()))

Preferences are committed through preferences.Manager, which runs the
validator before anything reaches the store and serializes commits of the
same preference set.
*/
package portlet
