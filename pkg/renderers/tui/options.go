package tui

import "io"

// Theme captures message prefixes the picker applies when printing.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Labels holds the menu texts.
type Labels struct {
	Title   string
	Choose  string
	Clear   string
	Add     string
	Remove  string
	Finish  string
	Cancel  string
	Discard string
}

func defaultLabels() Labels {
	return Labels{
		Title:   "Administrative regions",
		Choose:  "Choose",
		Clear:   "(clear)",
		Add:     "Add selection",
		Remove:  "Remove",
		Finish:  "Finish",
		Cancel:  "Cancel",
		Discard: "Discard the current selection?",
	}
}

// Option configures the picker.
type Option func(*Picker)

// WithPromptDriver overrides the prompt driver used by the picker.
func WithPromptDriver(driver PromptDriver) Option {
	return func(p *Picker) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithOutput sets where the default driver prints informational messages.
func WithOutput(w io.Writer) Option {
	return func(p *Picker) {
		p.out = w
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(p *Picker) {
		p.theme = theme
	}
}

// WithLabels overrides menu texts. Empty fields keep their defaults.
func WithLabels(labels Labels) Option {
	return func(p *Picker) {
		def := p.labels
		if labels.Title == "" {
			labels.Title = def.Title
		}
		if labels.Choose == "" {
			labels.Choose = def.Choose
		}
		if labels.Clear == "" {
			labels.Clear = def.Clear
		}
		if labels.Add == "" {
			labels.Add = def.Add
		}
		if labels.Remove == "" {
			labels.Remove = def.Remove
		}
		if labels.Finish == "" {
			labels.Finish = def.Finish
		}
		if labels.Cancel == "" {
			labels.Cancel = def.Cancel
		}
		if labels.Discard == "" {
			labels.Discard = def.Discard
		}
		p.labels = labels
	}
}
