package cascade

import (
	"context"
	"io"
	"log/slog"

	"github.com/goliatone/go-regioncascade/pkg/region"
)

// Source fetches regions from the upstream endpoints.
type Source interface {
	// Children returns the regions whose parent is parentID. An empty result
	// marks parentID as a leaf.
	Children(ctx context.Context, parentID string) ([]region.Region, error)
	// Ancestors returns the ancestor chain of id ordered root to leaf.
	Ancestors(ctx context.Context, id string) ([]string, error)
}

// Notifier receives user-facing failure messages.
type Notifier interface {
	Alert(ctx context.Context, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, message string)

func (f NotifierFunc) Alert(ctx context.Context, message string) {
	if f != nil {
		f(ctx, message)
	}
}

// PhaseHook observes phase transitions.
type PhaseHook func(from, to Phase)

// Options configures a Controller.
type Options struct {
	// ErrorServerMessage prefixes every fetch failure alert, which reads
	// "<ErrorServerMessage>Error <status>".
	ErrorServerMessage string
	// Placeholder is shown by renderers for the blank option.
	Placeholder string
	// RootLevel names the top-level selector when the roots carry no level.
	RootLevel  string
	LevelCodes region.LevelCodes
	Notifier   Notifier
	OnPhase    PhaseHook
	Logger     *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		ErrorServerMessage: "A server error occurred. ",
		Placeholder:        "Select an option",
		RootLevel:          "Département",
		LevelCodes:         region.DefaultLevelCodes(),
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
	if opts.RootLevel == "" {
		opts.RootLevel = "Département"
	}
	if opts.LevelCodes.Len() == 0 {
		opts.LevelCodes = region.DefaultLevelCodes()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts
}

func WithErrorServerMessage(msg string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ErrorServerMessage = msg
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

func WithRootLevel(level string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RootLevel = level
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

func WithNotifier(n Notifier) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Notifier = n
	}
}

func WithPhaseHook(hook PhaseHook) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.OnPhase = hook
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
