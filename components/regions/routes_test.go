package regions

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goliatone/go-regioncascade/pkg/testsupport"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	if got := MountPath("/admin"); got != "/admin/regions" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("admin"); got != "/admin/regions" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("/admin/", WithRoutePath("geo/picker/")); got != "/admin/geo/picker" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("", WithRoutePath("/")); got != "/" {
		t.Fatalf("unexpected mount path: %q", got)
	}
}

func TestRegisterRoutes_RegistersHandler(t *testing.T) {
	tree, err := testsupport.DefaultTree()
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	mux := http.NewServeMux()
	c := New(WithSource(tree))
	pattern, err := c.RegisterRoutes(mux, "/admin")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/admin/regions" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	b := newBrowser(t, mux)
	body := b.ok(http.MethodGet, pattern, nil)
	if !strings.Contains(body, `hx-post="/admin/regions/change"`) {
		t.Fatalf("expected event urls under the mount path\n%s", body)
	}
	body = b.ok(http.MethodPost, pattern+"/change", url.Values{"level": {"0"}, "value": {"2"}})
	if !strings.Contains(body, "Cotonou") {
		t.Fatalf("expected the commune level to be rendered\n%s", body)
	}
	if got := c.Sessions(); got != 1 {
		t.Fatalf("expected 1 session, got %d", got)
	}
}

func TestRegisterRoutes_MissingMux(t *testing.T) {
	if _, err := RegisterRoutes(nil, "/"); err == nil {
		t.Fatalf("expected an error for a nil mux")
	}
}

func TestHandler_HeadOmitsBody(t *testing.T) {
	tree, err := testsupport.DefaultTree()
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	rec := httptest.NewRecorder()
	NewHandler(WithSource(tree)).ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/regions", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 200, got %d with %d bytes", rec.Code, rec.Body.Len())
	}
}
