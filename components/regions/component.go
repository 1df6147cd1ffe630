package regions

import "net/http"

// Component wraps the handler, its configuration and the session store shared
// by every handler it hands out.
type Component struct {
	opts  Options
	store *store
}

// New constructs a component with default options plus any overrides.
func New(fns ...OptionFn) *Component {
	opts := NewOptions(fns...)
	return &Component{opts: opts, store: newStore(opts.SessionTTL, opts.Now)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Handler returns a net/http handler bound to the component sessions.
func (c *Component) Handler() http.Handler {
	if c == nil {
		return Handler()
	}
	return newHandler(c.opts, c.store)
}

// RegisterRoutes registers the component handler under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath)
	}
	return registerHandler(mux, basePath, c.opts, c.store)
}

// Sessions reports the number of live sessions.
func (c *Component) Sessions() int {
	if c == nil {
		return 0
	}
	return c.store.len()
}
