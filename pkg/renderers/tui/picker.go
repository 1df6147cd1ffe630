// Package tui drives a cascade controller from the terminal. Each round shows
// a menu built from the current snapshot: pick a value for an enabled level,
// commit the chain, remove a committed region, finish or cancel.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-regioncascade/pkg/cascade"
	"github.com/goliatone/go-regioncascade/pkg/region"
)

// Chain is the part of *cascade.Controller the picker drives.
type Chain interface {
	LevelChanged(ctx context.Context, index int, value string) error
	Add() []region.Committed
	Remove(id string) error
	Snapshot() cascade.Snapshot
}

// Picker walks a Chain interactively.
type Picker struct {
	driver PromptDriver
	out    io.Writer
	theme  Theme
	labels Labels
}

// New constructs a picker. Without WithPromptDriver it prompts through survey.
func New(opts ...Option) *Picker {
	p := &Picker{
		labels: defaultLabels(),
		theme:  Theme{ErrorPrefix: "! "},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.driver == nil {
		p.driver = newSurveyDriver(p.out)
	}
	return p
}

func (p *Picker) Name() string { return "tui" }

type actionKind int

const (
	actionChoose actionKind = iota
	actionAdd
	actionRemove
	actionFinish
	actionCancel
)

type action struct {
	kind     actionKind
	label    string
	selector cascade.Selector
	regionID string
}

// Run loops until the user finishes or cancels. On finish it returns the
// hidden field value, the JSON list of committed regions.
func (p *Picker) Run(ctx context.Context, chain Chain) (string, error) {
	if chain == nil {
		return "", errors.New("tui: nil chain")
	}
	lastAlert := ""
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		snap := chain.Snapshot()
		if snap.Alert != "" && snap.Alert != lastAlert {
			if err := p.driver.Info(ctx, p.theme.ErrorPrefix+snap.Alert); err != nil {
				return "", err
			}
		}
		lastAlert = snap.Alert

		actions := p.actions(snap)
		labels := make([]string, len(actions))
		for i, a := range actions {
			labels[i] = a.label
		}
		idx, err := p.driver.Select(ctx, SelectConfig{
			Message:      p.labels.Title,
			Options:      labels,
			DefaultIndex: 0,
			Help:         p.summary(snap),
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(actions) {
			return "", ErrInvalidChoice
		}

		chosen := actions[idx]
		switch chosen.kind {
		case actionChoose:
			if err := p.choose(ctx, chain, snap, chosen.selector); err != nil {
				return "", err
			}
		case actionAdd:
			added := chain.Add()
			if len(added) == 0 {
				continue
			}
			tags := make([]string, len(added))
			for i, entry := range added {
				tags[i] = entry.Tag()
			}
			if err := p.info(ctx, "Added: "+strings.Join(tags, ", ")); err != nil {
				return "", err
			}
		case actionRemove:
			if err := chain.Remove(chosen.regionID); err != nil {
				if err := p.info(ctx, err.Error()); err != nil {
					return "", err
				}
			}
		case actionFinish:
			return snap.HiddenValue, nil
		case actionCancel:
			if len(snap.Committed) == 0 {
				return "", ErrAborted
			}
			ok, err := p.driver.Confirm(ctx, ConfirmConfig{Message: p.labels.Discard})
			if err != nil {
				return "", err
			}
			if ok {
				return "", ErrAborted
			}
		}
	}
}

func (p *Picker) actions(snap cascade.Snapshot) []action {
	var out []action
	for _, sel := range snap.Selectors {
		if sel.Disabled {
			continue
		}
		label := fmt.Sprintf("%s %s", p.labels.Choose, sel.Label)
		if current := selectedName(sel); current != "" {
			label = fmt.Sprintf("%s (current: %s)", label, current)
		}
		out = append(out, action{kind: actionChoose, label: label, selector: sel})
	}
	if snap.AddEnabled && !snap.Stalled {
		out = append(out, action{kind: actionAdd, label: p.labels.Add})
	}
	for _, entry := range snap.Committed {
		out = append(out, action{
			kind:     actionRemove,
			label:    fmt.Sprintf("%s %s", p.labels.Remove, entry.Tag()),
			regionID: entry.ID,
		})
	}
	if snap.SubmitEnabled {
		out = append(out, action{kind: actionFinish, label: p.labels.Finish})
	}
	return append(out, action{kind: actionCancel, label: p.labels.Cancel})
}

func (p *Picker) choose(ctx context.Context, chain Chain, snap cascade.Snapshot, sel cascade.Selector) error {
	names := []string{p.labels.Clear}
	ids := []string{""}
	def := 0
	for _, opt := range sel.Options {
		if opt.Disabled {
			continue
		}
		if opt.ID == sel.Value {
			def = len(names)
		}
		names = append(names, opt.Name)
		ids = append(ids, opt.ID)
	}

	names = uniqueLabels(names, ids)

	placeholder := snap.Placeholder
	if placeholder == "" {
		placeholder = sel.Label
	}
	idx, err := p.driver.Select(ctx, SelectConfig{
		Message:      fmt.Sprintf("%s: %s", sel.Label, placeholder),
		Options:      names,
		DefaultIndex: def,
		PageSize:     15,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(ids) {
		return ErrInvalidChoice
	}

	err = chain.LevelChanged(ctx, sel.Index, ids[idx])
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		var fetchErr *cascade.FetchError
		if errors.As(err, &fetchErr) {
			// the alert is shown on the next round
			return nil
		}
		return p.info(ctx, err.Error())
	}
}

func (p *Picker) summary(snap cascade.Snapshot) string {
	if len(snap.Committed) == 0 {
		return ""
	}
	tags := make([]string, len(snap.Committed))
	for i, entry := range snap.Committed {
		tags[i] = entry.Tag()
	}
	return "Selected: " + strings.Join(tags, ", ")
}

func (p *Picker) info(ctx context.Context, msg string) error {
	return p.driver.Info(ctx, p.theme.InfoPrefix+msg)
}

func selectedName(sel cascade.Selector) string {
	if sel.Value == "" {
		return ""
	}
	for _, opt := range sel.Options {
		if opt.ID == sel.Value {
			return opt.Name
		}
	}
	return sel.Value
}

// uniqueLabels appends the region id to every label shared by more than one
// entry so the prompt never shows two identical choices.
func uniqueLabels(names, ids []string) []string {
	seen := make(map[string]int, len(names))
	for _, name := range names {
		seen[name]++
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = name
		if seen[name] > 1 && ids[i] != "" {
			out[i] = fmt.Sprintf("%s [%s]", name, ids[i])
		}
	}
	return out
}
