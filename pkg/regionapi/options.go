package regionapi

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	ChildrenURL   string
	AncestorsURL  string
	ParentParam   string
	AncestorParam string
	Headers       map[string]string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		ParentParam:   "parent_id",
		AncestorParam: "administrative_id",
		Timeout:       10 * time.Second,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	opts.ChildrenURL = strings.TrimSpace(opts.ChildrenURL)
	opts.AncestorsURL = strings.TrimSpace(opts.AncestorsURL)
	if opts.ParentParam == "" {
		opts.ParentParam = "parent_id"
	}
	if opts.AncestorParam == "" {
		opts.AncestorParam = "administrative_id"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Headers != nil {
		headers := make(map[string]string, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		opts.Headers = headers
	}
	return opts
}

// WithEndpoints sets both endpoint URLs.
func WithEndpoints(e Endpoints) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ChildrenURL = e.ChildrenURL
		o.AncestorsURL = e.AncestorsURL
	}
}

func WithChildrenURL(u string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ChildrenURL = u
	}
}

func WithAncestorsURL(u string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.AncestorsURL = u
	}
}

func WithParentParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ParentParam = name
	}
}

func WithAncestorParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.AncestorParam = name
	}
}

// WithHeader adds a header sent with every request, e.g. a session cookie or
// an authorization token for the upstream.
func WithHeader(key, value string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

func WithTimeout(d time.Duration) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Timeout = d
	}
}

func WithHTTPClient(client *http.Client) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.HTTPClient = client
	}
}

func WithLogger(l *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = l
	}
}
