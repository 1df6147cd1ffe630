package regions

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-regioncascade/pkg/regionapi"
	"github.com/goliatone/go-regioncascade/pkg/testsupport"
)

// browser replays the session cookie between requests.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, h http.Handler) *browser {
	return &browser{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) ok(method, target string, form url.Values) string {
	b.t.Helper()
	rec := b.do(method, target, form)
	if rec.Code != http.StatusOK {
		b.t.Fatalf("%s %s: expected status 200, got %d: %s", method, target, rec.Code, rec.Body.String())
	}
	return rec.Body.String()
}

func sampleTree(t *testing.T) *testsupport.Tree {
	t.Helper()
	tree, err := testsupport.DefaultTree()
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	return tree
}

func assertContains(t *testing.T, body string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected body to contain %q\n%s", fragment, body)
		}
	}
}

func TestHandler_RenderStartsSession(t *testing.T) {
	c := New(WithSource(sampleTree(t)), WithPlaceholder("Choisir"))
	b := newBrowser(t, c.Handler())

	rec := b.do(http.MethodGet, "/regions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content-type, got %q", ct)
	}
	cookie := b.cookies["regioncascade_session"]
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly || cookie.Path != "/regions" {
		t.Fatalf("unexpected session cookie: %#v", cookie)
	}
	assertContains(t, rec.Body.String(),
		`id="id_administrative_level"`,
		`<option id="1" value="1">Atlantique</option>`,
		`<option id="3" value="3">Ouémé</option>`,
		`data-placeholder="Choisir"`,
		`hx-post="/regions/change"`,
	)

	first := cookie.Value
	b.ok(http.MethodGet, "/regions", nil)
	if got := c.Sessions(); got != 1 {
		t.Fatalf("expected a reload to replace the session, got %d sessions", got)
	}
	if b.cookies["regioncascade_session"].Value == first {
		t.Fatalf("expected a reload to issue a new session id")
	}
}

func TestHandler_EventFlow(t *testing.T) {
	c := New(WithSource(sampleTree(t)))
	b := newBrowser(t, c.Handler())
	b.ok(http.MethodGet, "/regions", nil)

	body := b.ok(http.MethodPost, "/regions/change", url.Values{"level": {"0"}, "value": {"1"}})
	assertContains(t, body,
		`<option id="1" value="1" selected="selected">Atlantique</option>`,
		`<label class="col-md-3 col-form-label" for="id_commune">COMMUNE</label>`,
		`<option id="101" value="101">Abomey-Calavi</option>`,
	)

	b.ok(http.MethodPost, "/regions/change", url.Values{"level": {"1"}, "value": {"102"}})
	body = b.ok(http.MethodPost, "/regions/add", url.Values{})
	assertContains(t, body,
		`Atlantique (Dep)</a>`,
		`Ouidah (Com)</a>`,
		`hx-vals="{&quot;id&quot;:&quot;102&quot;}"`,
	)

	if rec := b.do(http.MethodPost, "/regions/change", url.Values{"level": {"1"}, "value": {"101"}}); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a committed selector, got %d", rec.Code)
	}

	body = b.ok(http.MethodPost, "/regions/remove", url.Values{"id": {"102"}})
	assertContains(t, body, `value="[{&quot;name&quot;:&quot;Atlantique&quot;,&quot;id&quot;:&quot;1&quot;}]"`)

	body = b.ok(http.MethodPost, "/regions/remove", url.Values{"id": {"1"}})
	assertContains(t, body, `id="id_administrative_levels" value="[]"`)

	body = b.ok(http.MethodPost, "/regions/reset", url.Values{})
	if strings.Contains(body, "Abomey-Calavi") {
		t.Fatalf("expected reset to drop deeper levels\n%s", body)
	}
	if got := c.Sessions(); got != 1 {
		t.Fatalf("expected reset to replace the session, got %d sessions", got)
	}
}

func TestHandler_RestoresInitialSelection(t *testing.T) {
	c := New(WithSource(sampleTree(t)))
	b := newBrowser(t, c.Handler())

	body := b.ok(http.MethodGet, "/regions?initial=1010102", nil)
	assertContains(t, body,
		`<option id="1" value="1" selected="selected">Atlantique</option>`,
		`<option id="101" value="101" selected="selected">Abomey-Calavi</option>`,
		`<option id="10101" value="10101" selected="selected">Akassato</option>`,
		`<option id="1010102" value="1010102" selected="selected">Gbodjo</option>`,
		`id="id_administrative_levels" value="1010102"`,
	)
	if got := strings.Count(body, `class="form-control region"`); got != 4 {
		t.Fatalf("expected 4 selects, got %d", got)
	}

	body = b.ok(http.MethodGet, "/regions?initial=", nil)
	if got := strings.Count(body, `class="form-control region"`); got != 1 {
		t.Fatalf("expected an explicit empty seed to start over, got %d selects", got)
	}
}

func TestHandler_BadInput(t *testing.T) {
	c := New(WithSource(sampleTree(t)))
	b := newBrowser(t, c.Handler())
	b.ok(http.MethodGet, "/regions", nil)

	cases := []struct {
		name   string
		target string
		form   url.Values
	}{
		{name: "non numeric level", target: "/regions/change", form: url.Values{"level": {"x"}, "value": {"1"}}},
		{name: "level out of range", target: "/regions/change", form: url.Values{"level": {"4"}, "value": {"1"}}},
		{name: "unknown option", target: "/regions/change", form: url.Values{"level": {"0"}, "value": {"999"}}},
		{name: "missing remove id", target: "/regions/remove", form: url.Values{}},
		{name: "remove uncommitted", target: "/regions/remove", form: url.Values{"id": {"1"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := b.do(http.MethodPost, tc.target, tc.form); rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(WithSource(sampleTree(t)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/regions/change", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected 405 with Allow POST, got %d %q", rec.Code, rec.Header().Get("Allow"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/regions", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "GET, HEAD" {
		t.Fatalf("expected 405 with Allow GET, HEAD, got %d %q", rec.Code, rec.Header().Get("Allow"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/regions/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_GuardRejects(t *testing.T) {
	h := NewHandler(
		WithSource(sampleTree(t)),
		WithGuard(func(r *http.Request) error {
			return StatusError{Code: http.StatusUnauthorized}
		}),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/regions", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestHandler_MissingSource(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/regions", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestHandler_UpstreamFailures(t *testing.T) {
	up := testsupport.NewUpstream(sampleTree(t))
	srv := up.Server(t)
	client, err := regionapi.New(
		regionapi.WithChildrenURL(srv.URL+"/children"),
		regionapi.WithAncestorsURL(srv.URL+"/ancestors"),
	)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	c := New(WithSource(client), WithErrorServerMessage("Erreur serveur. "))
	b := newBrowser(t, c.Handler())
	b.ok(http.MethodGet, "/regions", nil)

	up.FailWith("children:2", http.StatusBadGateway)
	body := b.ok(http.MethodPost, "/regions/change", url.Values{"level": {"0"}, "value": {"2"}})
	assertContains(t, body,
		`<div class="alert alert-danger" role="alert">Erreur serveur. Error 502</div>`,
		`id="id_administrative_level" name="value"`,
	)
	if rec := b.do(http.MethodPost, "/regions/change", url.Values{"level": {"0"}, "value": {"1"}}); rec.Code != http.StatusConflict {
		t.Fatalf("expected a stalled chain to reject changes, got %d", rec.Code)
	}

	up.FailWith("children:2", 0)
	body = b.ok(http.MethodGet, "/regions", nil)
	if strings.Contains(body, `role="alert"`) || strings.Contains(body, "required disabled") {
		t.Fatalf("expected a reload to clear the failed chain\n%s", body)
	}
	body = b.ok(http.MethodPost, "/regions/change", url.Values{"level": {"0"}, "value": {"2"}})
	assertContains(t, body, `<option id="201" value="201">Cotonou</option>`)

	up.FailWith("children:", http.StatusServiceUnavailable)
	if rec := b.do(http.MethodPost, "/regions/reset", url.Values{}); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when roots cannot be loaded, got %d", rec.Code)
	}
}

func TestHandler_ExpiredSessionStartsOver(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New(
		WithSource(sampleTree(t)),
		WithSessionTTL(time.Minute),
		WithClock(func() time.Time { return now }),
	)
	b := newBrowser(t, c.Handler())
	b.ok(http.MethodGet, "/regions", nil)
	first := b.cookies["regioncascade_session"].Value

	now = now.Add(2 * time.Minute)
	if got := c.Sessions(); got != 0 {
		t.Fatalf("expected the idle session to be evicted, got %d", got)
	}

	body := b.ok(http.MethodPost, "/regions/change", url.Values{"level": {"0"}, "value": {"1"}})
	if strings.Contains(body, "Abomey-Calavi") {
		t.Fatalf("expected the event to be dropped for an expired session\n%s", body)
	}
	if b.cookies["regioncascade_session"].Value == first {
		t.Fatalf("expected a new session id")
	}
}
