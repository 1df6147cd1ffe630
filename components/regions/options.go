package regions

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goliatone/go-regioncascade/pkg/cascade"
	"github.com/goliatone/go-regioncascade/pkg/region"
	"github.com/goliatone/go-regioncascade/pkg/renderers/html"
)

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath    string
	BasePath     string
	CookieName   string
	SessionTTL   time.Duration
	InitialParam string
	// RootParentID is the parent id passed to the source to list the
	// top-level regions.
	RootParentID       string
	Placeholder        string
	ErrorServerMessage string
	LevelCodes         region.LevelCodes
	Guard              GuardFunc
	Logger             *slog.Logger

	Source   cascade.Source
	Renderer *html.Renderer
	Cascade  []cascade.OptionFn
	Now      func() time.Time
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    "/regions",
		CookieName:   "regioncascade_session",
		SessionTTL:   30 * time.Minute,
		InitialParam: "initial",
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
	if opts.RoutePath == "" {
		opts.RoutePath = "/regions"
	}
	if opts.CookieName == "" {
		opts.CookieName = "regioncascade_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.InitialParam == "" {
		opts.InitialParam = "initial"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Cascade != nil {
		opts.Cascade = append([]cascade.OptionFn{}, opts.Cascade...)
	}
	return opts
}

// controllerOptions translates the component settings into controller options.
// Explicit Cascade options are applied last.
func (o Options) controllerOptions(logger *slog.Logger) []cascade.OptionFn {
	fns := []cascade.OptionFn{cascade.WithLogger(logger)}
	if o.Placeholder != "" {
		fns = append(fns, cascade.WithPlaceholder(o.Placeholder))
	}
	if o.ErrorServerMessage != "" {
		fns = append(fns, cascade.WithErrorServerMessage(o.ErrorServerMessage))
	}
	if o.LevelCodes.Len() > 0 {
		fns = append(fns, cascade.WithLevelCodes(o.LevelCodes))
	}
	return append(fns, o.Cascade...)
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithBasePath sets the prefix the component is mounted under. It is used to
// build the event URLs embedded in the fragment.
func WithBasePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.BasePath = path
	}
}

func WithCookieName(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.CookieName = name
	}
}

func WithSessionTTL(ttl time.Duration) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SessionTTL = ttl
	}
}

func WithInitialParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.InitialParam = name
	}
}

func WithRootParentID(id string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RootParentID = id
	}
}

func WithPlaceholder(placeholder string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Placeholder = placeholder
	}
}

func WithErrorServerMessage(msg string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ErrorServerMessage = msg
	}
}

func WithLevelCodes(codes region.LevelCodes) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.LevelCodes = codes
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

func WithSource(source cascade.Source) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Source = source
	}
}

func WithRenderer(renderer *html.Renderer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderer = renderer
	}
}

// WithCascadeOptions forwards extra options to every session controller.
func WithCascadeOptions(fns ...cascade.OptionFn) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Cascade = append(o.Cascade, fns...)
	}
}

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Now = now
	}
}
