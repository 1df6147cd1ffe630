package tui

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-regioncascade/pkg/cascade"
	"github.com/goliatone/go-regioncascade/pkg/region"
)

type stubDriver struct {
	selects  []int
	confirms []bool
	menus    [][]string
	messages []string
	infos    []string
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.menus = append(s.menus, append([]string(nil), cfg.Options...))
	s.messages = append(s.messages, cfg.Message)
	if len(s.selects) == 0 {
		return 0, errors.New("stub: no more selections")
	}
	next := s.selects[0]
	s.selects = s.selects[1:]
	return next, nil
}

func (s *stubDriver) Confirm(context.Context, ConfirmConfig) (bool, error) {
	if len(s.confirms) == 0 {
		return false, ErrAborted
	}
	next := s.confirms[0]
	s.confirms = s.confirms[1:]
	return next, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}

type statusErr int

func (e statusErr) Error() string   { return http.StatusText(int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

type mapSource struct {
	children map[string][]region.Region
	failures map[string]error
}

func (m mapSource) Children(_ context.Context, parentID string) ([]region.Region, error) {
	if err := m.failures[parentID]; err != nil {
		return nil, err
	}
	return m.children[parentID], nil
}

func (m mapSource) Ancestors(context.Context, string) ([]string, error) {
	return nil, nil
}

func newChain(t *testing.T, src mapSource, fns ...cascade.OptionFn) *cascade.Controller {
	t.Helper()
	ctrl, err := cascade.New(src, fns...)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	roots := []region.Region{{ID: "A", Name: "X", Level: "Département"}}
	if err := ctrl.Initialize(context.Background(), roots, ""); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return ctrl
}

func TestPicker_WalkAddRemoveFinish(t *testing.T) {
	src := mapSource{children: map[string][]region.Region{
		"A": {
			{ID: "C1", Name: "Alpha", Level: "Commune"},
			{ID: "C2", Name: "Beta", Level: "Commune"},
		},
	}}
	driver := &stubDriver{selects: []int{
		0, 1, // choose X
		1, 1, // choose Alpha
		2,    // add
		2,    // remove Alpha (Com)
		3,    // finish
	}}
	picker := New(WithPromptDriver(driver))

	got, err := picker.Run(context.Background(), newChain(t, src))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := `[{"name":"X","id":"A"}]`; got != want {
		t.Fatalf("hidden value: want %s, got %s", want, got)
	}

	wantMenus := [][]string{
		{"Choose DÉPARTEMENT", "Cancel"},
		{"(clear)", "X"},
		{"Choose DÉPARTEMENT (current: X)", "Choose COMMUNE", "Add selection", "Cancel"},
		{"(clear)", "Alpha", "Beta"},
		{"Choose DÉPARTEMENT (current: X)", "Choose COMMUNE (current: Alpha)", "Add selection", "Cancel"},
		{"Add selection", "Remove X (Dep)", "Remove Alpha (Com)", "Finish", "Cancel"},
		{"Choose COMMUNE (current: Alpha)", "Add selection", "Remove X (Dep)", "Finish", "Cancel"},
	}
	if diff := cmp.Diff(wantMenus, driver.menus); diff != "" {
		t.Fatalf("menus mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Added: X (Dep), Alpha (Com)"}, driver.infos); diff != "" {
		t.Fatalf("infos mismatch (-want +got):\n%s", diff)
	}
	if driver.messages[3] != "COMMUNE: Select an option" {
		t.Fatalf("unexpected level prompt %q", driver.messages[3])
	}
}

func TestPicker_FetchFailureShowsAlert(t *testing.T) {
	src := mapSource{failures: map[string]error{"A": statusErr(http.StatusBadGateway)}}
	driver := &stubDriver{selects: []int{0, 1, 0}}
	picker := New(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "error: "}))

	_, err := picker.Run(context.Background(), newChain(t, src, cascade.WithErrorServerMessage("Oops. ")))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if diff := cmp.Diff([]string{"error: Oops. Error 502"}, driver.infos); diff != "" {
		t.Fatalf("infos mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Cancel"}, driver.menus[len(driver.menus)-1]); diff != "" {
		t.Fatalf("stalled menu mismatch (-want +got):\n%s", diff)
	}
}

func TestPicker_CancelAsksBeforeDiscarding(t *testing.T) {
	src := mapSource{children: map[string][]region.Region{}}
	driver := &stubDriver{
		selects:  []int{0, 1, 1, 3, 3},
		confirms: []bool{false, true},
	}
	picker := New(WithPromptDriver(driver), WithLabels(Labels{Cancel: "Quit"}))

	_, err := picker.Run(context.Background(), newChain(t, src))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if len(driver.confirms) != 0 {
		t.Fatalf("expected both confirmations to be consumed, %d left", len(driver.confirms))
	}
	want := []string{"Add selection", "Remove X (Dep)", "Finish", "Quit"}
	if diff := cmp.Diff(want, driver.menus[len(driver.menus)-1]); diff != "" {
		t.Fatalf("menu mismatch (-want +got):\n%s", diff)
	}
}

func TestPicker_InvalidChoice(t *testing.T) {
	driver := &stubDriver{selects: []int{7}}
	_, err := New(WithPromptDriver(driver)).Run(context.Background(), newChain(t, mapSource{}))
	if !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("expected ErrInvalidChoice, got %v", err)
	}
}

func TestPicker_RepeatedNamesStayDistinct(t *testing.T) {
	src := mapSource{children: map[string][]region.Region{
		"A": {
			{ID: "C1", Name: "Saint-Jean", Level: "Commune"},
			{ID: "C2", Name: "Saint-Jean", Level: "Commune"},
			{ID: "C3", Name: "(clear)", Level: "Commune"},
		},
	}}
	driver := &stubDriver{selects: []int{
		0, 1, // choose X
		1, 2, // choose the second Saint-Jean
		3, // cancel
	}}
	chain := newChain(t, src)

	_, err := New(WithPromptDriver(driver)).Run(context.Background(), chain)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	want := []string{"(clear)", "Saint-Jean [C1]", "Saint-Jean [C2]", "(clear) [C3]"}
	if diff := cmp.Diff(want, driver.menus[3]); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if got := chain.Snapshot().Selectors[1].Value; got != "C2" {
		t.Fatalf("expected C2 to be selected, got %q", got)
	}
}
