// Package html renders a cascade snapshot into the region picker fragment:
// one select per level, the add button, the tag list with remove controls, the
// hidden field carrying the serialized selection and the submit button.
package html

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/goliatone/go-regioncascade/pkg/cascade"
	"github.com/goliatone/go-regioncascade/pkg/render/template"
	"github.com/goliatone/go-regioncascade/pkg/render/template/pongo"
)

// URLs are the component endpoints the fragment posts events to. Empty URLs
// omit the corresponding hx-* attributes.
type URLs struct {
	Change string
	Add    string
	Remove string
}

type Labels struct {
	Add    string
	Submit string
	Remove string
}

type Options struct {
	Templates    fs.FS
	Engine       template.TemplateRenderer
	TemplateName string
	ContainerID  string
	RootSelectID string
	FieldName    string
	HiddenID     string
	Labels       Labels
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		TemplateName: TemplateName,
		ContainerID:  "region-cascade",
		RootSelectID: "id_administrative_level",
		FieldName:    "administrative_levels",
		HiddenID:     "id_administrative_levels",
		Labels: Labels{
			Add:    "Add",
			Submit: "Submit",
			Remove: "Remove",
		},
	}
}

func WithTemplates(files fs.FS) OptionFn {
	return func(o *Options) { o.Templates = files }
}

func WithEngine(engine template.TemplateRenderer) OptionFn {
	return func(o *Options) { o.Engine = engine }
}

func WithTemplateName(name string) OptionFn {
	return func(o *Options) { o.TemplateName = name }
}

func WithContainerID(id string) OptionFn {
	return func(o *Options) { o.ContainerID = id }
}

func WithRootSelectID(id string) OptionFn {
	return func(o *Options) { o.RootSelectID = id }
}

func WithField(name, hiddenID string) OptionFn {
	return func(o *Options) {
		o.FieldName = name
		o.HiddenID = hiddenID
	}
}

func WithLabels(labels Labels) OptionFn {
	return func(o *Options) { o.Labels = labels }
}

// Renderer turns snapshots into HTML.
type Renderer struct {
	opts   Options
	engine template.TemplateRenderer
}

func New(fns ...OptionFn) (*Renderer, error) {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	defaults := DefaultOptions()
	if opts.TemplateName == "" {
		opts.TemplateName = defaults.TemplateName
	}
	if opts.ContainerID == "" {
		opts.ContainerID = defaults.ContainerID
	}
	if opts.FieldName == "" {
		opts.FieldName = defaults.FieldName
	}
	if opts.HiddenID == "" {
		opts.HiddenID = defaults.HiddenID
	}

	engine := opts.Engine
	if engine == nil {
		files := opts.Templates
		if files == nil {
			files = embeddedTemplates
		}
		e, err := pongo.New(pongo.WithFS(files))
		if err != nil {
			return nil, fmt.Errorf("html: template engine: %w", err)
		}
		engine = e
	}
	return &Renderer{opts: opts, engine: engine}, nil
}

func (r *Renderer) Name() string { return "html" }

func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render executes the fragment template for snap.
func (r *Renderer) Render(snap cascade.Snapshot, urls URLs) ([]byte, error) {
	out, err := r.engine.RenderTemplate(r.opts.TemplateName, r.viewModel(snap, urls))
	if err != nil {
		return nil, fmt.Errorf("html: render: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) viewModel(snap cascade.Snapshot, urls URLs) map[string]any {
	selectors := make([]map[string]any, 0, len(snap.Selectors))
	for _, sel := range snap.Selectors {
		domID := sel.ID
		if sel.Index == 0 && r.opts.RootSelectID != "" {
			domID = r.opts.RootSelectID
		}
		options := make([]map[string]any, 0, len(sel.Options))
		for _, opt := range sel.Options {
			options = append(options, map[string]any{
				"id":       opt.ID,
				"name":     opt.Name,
				"disabled": opt.Disabled,
				"selected": opt.Selected,
			})
		}
		selectors = append(selectors, map[string]any{
			"index":    sel.Index,
			"vals":     hxVals("level", strconv.Itoa(sel.Index)),
			"dom_id":   domID,
			"label":    sel.Label,
			"level":    sel.Level,
			"value":    sel.Value,
			"disabled": sel.Disabled,
			"options":  options,
		})
	}

	tags := make([]map[string]any, 0, len(snap.Committed))
	for _, c := range snap.Committed {
		tags = append(tags, map[string]any{
			"id":    c.ID,
			"vals":  hxVals("id", c.ID),
			"label": c.Tag(),
		})
	}

	return map[string]any{
		"container_id":   r.opts.ContainerID,
		"alert":          snap.Alert,
		"placeholder":    snap.Placeholder,
		"selectors":      selectors,
		"tags":           tags,
		"add_enabled":    snap.AddEnabled,
		"submit_enabled": snap.SubmitEnabled,
		"field_name":     r.opts.FieldName,
		"hidden_id":      r.opts.HiddenID,
		"hidden_value":   snap.HiddenValue,
		"phase":          snap.Phase.String(),
		"labels": map[string]any{
			"add":    r.opts.Labels.Add,
			"submit": r.opts.Labels.Submit,
			"remove": r.opts.Labels.Remove,
		},
		"urls": map[string]any{
			"change": urls.Change,
			"add":    urls.Add,
			"remove": urls.Remove,
		},
	}
}

// hxVals encodes a single hx-vals parameter. The template escapes the result
// into a double-quoted attribute, so ids may carry any character.
func hxVals(key, value string) string {
	out, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return "{}"
	}
	return string(out)
}
