package regions

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath returns the full mount path for the component under basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return mountPath(basePath, opts.RoutePath)
}

// RegisterRoutes registers the component under basePath on mux. Both the
// mount path and its event subpaths are routed to the same handler.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	opts := NewOptions(fns...)
	return RegisterRoutesWithOptions(mux, basePath, opts)
}

// RegisterRoutesWithOptions registers a handler under basePath using a
// pre-built Options value.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	opts = NewOptions(func(o *Options) { *o = opts })
	return registerHandler(mux, basePath, opts, newStore(opts.SessionTTL, opts.Now))
}

func registerHandler(mux Mux, basePath string, opts Options, st *store) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("regions: missing mux")
	}
	opts.BasePath = basePath
	h := newHandler(opts, st)
	mux.Handle(h.mount, h)
	if h.mount != "/" {
		mux.Handle(h.mount+"/", h)
	}
	return h.mount, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}
	routePath = strings.TrimRight(routePath, "/")

	if basePath == "" || basePath == "/" {
		if routePath == "" {
			return "/"
		}
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
