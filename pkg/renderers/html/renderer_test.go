package html

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-regioncascade/pkg/cascade"
	"github.com/goliatone/go-regioncascade/pkg/region"
)

type staticSource map[string][]region.Region

func (s staticSource) Children(_ context.Context, parentID string) ([]region.Region, error) {
	return s[parentID], nil
}

func (s staticSource) Ancestors(context.Context, string) ([]string, error) {
	return nil, nil
}

func scenarioController(t *testing.T) *cascade.Controller {
	t.Helper()
	src := staticSource{
		"A": {
			{ID: "C1", Name: "Alpha", Level: "Commune"},
			{ID: "C2", Name: "Beta", Level: "Commune"},
		},
	}
	ctrl, err := cascade.New(src, cascade.WithPlaceholder("Choose"))
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	ctx := context.Background()
	if err := ctrl.Initialize(ctx, []region.Region{{ID: "A", Name: "X", Level: "Département"}}, ""); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := ctrl.LevelChanged(ctx, 0, "A"); err != nil {
		t.Fatalf("change: %v", err)
	}
	return ctrl
}

func render(t *testing.T, r *Renderer, snap cascade.Snapshot, urls URLs) string {
	t.Helper()
	out, err := r.Render(snap, urls)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected output to contain %q\n%s", fragment, html)
		}
	}
}

func assertNotContains(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if strings.Contains(html, fragment) {
			t.Fatalf("expected output not to contain %q\n%s", fragment, html)
		}
	}
}

func TestRender_ChildSelectorAppended(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctrl := scenarioController(t)

	out := render(t, r, ctrl.Snapshot(), URLs{})
	assertContains(t, out,
		`id="id_administrative_level"`,
		`<label class="col-md-3 col-form-label" for="id_commune">COMMUNE</label>`,
		`class="form-group row dynamic-select"`,
		`<option value></option>`,
		`<option id="C1" value="C1">Alpha</option>`,
		`<option id="C2" value="C2">Beta</option>`,
		`<option id="A" value="A" selected="selected">X</option>`,
		`data-placeholder="Choose"`,
		`<a id="add" class="btn btn-outline-primary">Add</a>`,
		`<button type="submit" id="submit" class="btn btn-primary" disabled>`,
		`id="id_administrative_levels" value=""`,
	)
	assertNotContains(t, out, "hx-post", "alert-danger")
	if got := strings.Count(out, `class="form-control region"`); got != 2 {
		t.Fatalf("expected 2 selects, got %d", got)
	}
}

func TestRender_CommittedTagsAndHiddenField(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctrl := scenarioController(t)
	if err := ctrl.LevelChanged(context.Background(), 1, "C1"); err != nil {
		t.Fatalf("change: %v", err)
	}
	ctrl.Add()

	out := render(t, r, ctrl.Snapshot(), URLs{Change: "/regions/change", Add: "/regions/add", Remove: "/regions/remove"})
	assertContains(t, out,
		`X (Dep)</a>`,
		`Alpha (Com)</a>`,
		`<i value="C1" class="fa fa-remove mr-2 link remove-region" title="Remove"`,
		`<option id="C1" value="C1" disabled selected="selected">Alpha</option>`,
		`value="[{&quot;name&quot;:&quot;X&quot;,&quot;id&quot;:&quot;A&quot;},{&quot;name&quot;:&quot;Alpha&quot;,&quot;id&quot;:&quot;C1&quot;}]"`,
		`hx-post="/regions/change"`,
		`hx-post="/regions/remove"`,
	)
	assertNotContains(t, out, `id="submit" class="btn btn-primary" disabled`)

	if err := ctrl.Remove("C1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	out = render(t, r, ctrl.Snapshot(), URLs{})
	assertContains(t, out,
		`<option id="C1" value="C1" selected="selected">Alpha</option>`,
		`value="[{&quot;name&quot;:&quot;X&quot;,&quot;id&quot;:&quot;A&quot;}]"`,
	)
	assertNotContains(t, out, "Alpha (Com)")
}

func TestRender_AlertAndEscaping(t *testing.T) {
	r, err := New(WithLabels(Labels{Add: "Ajouter", Submit: "Envoyer", Remove: "Retirer"}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	snap := cascade.Snapshot{
		Alert: "Erreur <serveur> Error 500",
		Selectors: []cascade.Selector{{
			Index:   0,
			ID:      "id_departement",
			Label:   "DÉPARTEMENT",
			Options: []cascade.Option{{ID: "A", Name: `<script>x</script>`}},
		}},
	}

	out := render(t, r, snap, URLs{})
	assertContains(t, out,
		`<div class="alert alert-danger" role="alert">Erreur &lt;serveur&gt; Error 500</div>`,
		`&lt;script&gt;x&lt;/script&gt;`,
		`>Ajouter</a>`,
		`>Envoyer</button>`,
		`class="btn btn-outline-primary disabled"`,
	)
	assertNotContains(t, out, "<script>")
}

func TestRender_HxValsEscapeIDs(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	snap := cascade.Snapshot{
		Selectors: []cascade.Selector{{Index: 0, ID: "id_departement", Label: "DÉPARTEMENT"}},
		Committed: []region.Committed{{ID: `a"b`, Name: "Odd", Code: "Dep"}},
	}

	out := render(t, r, snap, URLs{Change: "/regions/change", Remove: "/regions/remove"})
	assertContains(t, out,
		`hx-vals="{&quot;level&quot;:&quot;0&quot;}"`,
		`hx-vals="{&quot;id&quot;:&quot;a\&quot;b&quot;}"`,
	)
	assertNotContains(t, out, `hx-vals='`)
}

func TestRender_CustomTemplates(t *testing.T) {
	files := fstest.MapFS{
		"custom.tpl": {Data: []byte(`{% for sel in selectors %}[{{ sel.dom_id }}={{ sel.value }}]{% endfor %}`)},
	}
	r, err := New(WithTemplates(files), WithTemplateName("custom"), WithRootSelectID(""))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out := render(t, r, scenarioController(t).Snapshot(), URLs{})
	if out != "[id_departement=A][id_commune=]" {
		t.Fatalf("unexpected output: %q", out)
	}
}
