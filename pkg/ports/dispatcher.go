package ports

// RequestDispatcher delegates rendering to another server-side resource.
// The host implements this interface; portlets obtain it from their Context.
type RequestDispatcher interface {
	// Include renders the target into resp. Status changes attempted by the
	// target are ignored. Plain I/O failures are returned as-is, any other
	// failure of the target is wrapped in a portlet failure.
	Include(req RenderRequest, resp RenderResponse) error
}
