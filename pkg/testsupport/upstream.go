package testsupport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goliatone/go-regioncascade/pkg/region"
)

// Upstream is a fake region API serving GET <ChildrenPath>?parent_id= and
// GET <AncestorsPath>?administrative_id= from a Tree.
type Upstream struct {
	tree *Tree

	ChildrenPath  string
	AncestorsPath string
	ParentParam   string
	AncestorParam string

	mu       sync.Mutex
	failures map[string]int
	hits     []string
}

// NewUpstream builds the fake API over tree with the default paths and
// parameter names.
func NewUpstream(tree *Tree) *Upstream {
	return &Upstream{
		tree:          tree,
		ChildrenPath:  "/children",
		AncestorsPath: "/ancestors",
		ParentParam:   "parent_id",
		AncestorParam: "administrative_id",
		failures:      make(map[string]int),
	}
}

// FailWith makes requests for key answer with status. The key is
// "children:<parent>" or "ancestors:<id>".
func (u *Upstream) FailWith(key string, status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if status == 0 {
		delete(u.failures, key)
		return
	}
	u.failures[key] = status
}

// Hits returns the keys requested so far.
func (u *Upstream) Hits() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.hits...)
}

func (u *Upstream) record(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hits = append(u.hits, key)
	return u.failures[key]
}

func (u *Upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	switch r.URL.Path {
	case u.ChildrenPath:
		parent := query.Get(u.ParentParam)
		if status := u.record("children:" + parent); status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		children, err := u.tree.Children(r.Context(), parent)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if children == nil {
			children = []region.Region{}
		}
		writeJSON(w, children)
	case u.AncestorsPath:
		id := query.Get(u.AncestorParam)
		if status := u.record("ancestors:" + id); status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		chain, err := u.tree.Ancestors(r.Context(), id)
		if errors.Is(err, ErrUnknownRegion) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if chain == nil {
			chain = []string{}
		}
		writeJSON(w, chain)
	default:
		http.NotFound(w, r)
	}
}

// Server starts the upstream on an httptest server closed at test cleanup.
func (u *Upstream) Server(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(u)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}
