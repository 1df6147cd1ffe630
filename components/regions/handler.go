package regions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-regioncascade/pkg/cascade"
	"github.com/goliatone/go-regioncascade/pkg/renderers/html"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

var (
	ErrMissingSource = errors.New("regions: missing source")
	ErrInvalidLevel  = errors.New("regions: invalid level")
	ErrMissingID     = errors.New("regions: missing region id")
)

const (
	routeRender = ""
	routeChange = "change"
	routeAdd    = "add"
	routeRemove = "remove"
	routeReset  = "reset"
)

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return HandlerWithOptions(opts)
}

// HandlerWithOptions builds a handler with its own session store. Callers are
// expected to pass an Options value produced by NewOptions.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return newHandler(opts, newStore(opts.SessionTTL, opts.Now))
}

type handler struct {
	opts     Options
	store    *store
	renderer *html.Renderer
	initErr  error
	mount    string
}

func newHandler(opts Options, st *store) *handler {
	h := &handler{
		opts:     opts,
		store:    st,
		renderer: opts.Renderer,
		mount:    mountPath(opts.BasePath, opts.RoutePath),
	}
	if h.renderer == nil {
		h.renderer, h.initErr = html.New()
	}
	if h.initErr == nil && opts.Source == nil {
		h.initErr = ErrMissingSource
	}
	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	route := h.route(r.URL.Path)
	var allowed []string
	switch route {
	case routeRender:
		allowed = []string{http.MethodGet, http.MethodHead}
	case routeChange, routeAdd, routeRemove, routeReset:
		allowed = []string{http.MethodPost}
	default:
		http.NotFound(w, r)
		return
	}
	if !methodAllowed(r.Method, allowed) {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if h.opts.Guard != nil {
		if err := h.opts.Guard(r); err != nil {
			writeGuardError(w, err)
			return
		}
	}

	if h.initErr != nil {
		h.opts.Logger.Error("regions_handler_unavailable", "err", h.initErr)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var err error
	switch route {
	case routeRender:
		err = h.serveRender(w, r)
	case routeChange:
		err = h.serveChange(w, r)
	case routeAdd:
		err = h.serveAdd(w, r)
	case routeRemove:
		err = h.serveRemove(w, r)
	case routeReset:
		err = h.serveReset(w, r)
	}
	if err != nil {
		h.writeError(w, r, route, err)
	}
}

func (h *handler) route(path string) string {
	rel := strings.TrimPrefix(path, h.mount)
	return strings.Trim(rel, "/")
}

// serveRender answers the picker's page load. Every GET starts a fresh
// session, seeded from the initial query parameter, and drops the one named by
// the cookie. Events only ever reach a session through POST.
func (h *handler) serveRender(w http.ResponseWriter, r *http.Request) error {
	if prev, ok := h.session(r); ok {
		h.store.delete(prev.id)
	}
	sess, err := h.newSession(r.Context(), r.URL.Query().Get(h.opts.InitialParam))
	if err != nil {
		return err
	}
	h.setCookie(w, sess.id)
	return h.render(w, r, sess)
}

func (h *handler) serveChange(w http.ResponseWriter, r *http.Request) error {
	sess, fresh, err := h.activeSession(w, r)
	if err != nil || fresh {
		return h.renderOrErr(w, r, sess, err)
	}
	if err := r.ParseForm(); err != nil {
		return StatusError{Code: http.StatusBadRequest, Err: err}
	}
	index, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("level")))
	if err != nil {
		return StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("%w: %v", ErrInvalidLevel, err)}
	}
	if err := sess.ctrl.LevelChanged(r.Context(), index, r.PostFormValue("value")); err != nil {
		if code := eventStatus(err); code != http.StatusOK {
			return StatusError{Code: code, Err: err}
		}
	}
	return h.render(w, r, sess)
}

func (h *handler) serveAdd(w http.ResponseWriter, r *http.Request) error {
	sess, fresh, err := h.activeSession(w, r)
	if err != nil || fresh {
		return h.renderOrErr(w, r, sess, err)
	}
	added := sess.ctrl.Add()
	h.opts.Logger.Debug("regions_added", "session", sess.id, "count", len(added))
	return h.render(w, r, sess)
}

func (h *handler) serveRemove(w http.ResponseWriter, r *http.Request) error {
	sess, fresh, err := h.activeSession(w, r)
	if err != nil || fresh {
		return h.renderOrErr(w, r, sess, err)
	}
	if err := r.ParseForm(); err != nil {
		return StatusError{Code: http.StatusBadRequest, Err: err}
	}
	id := strings.TrimSpace(r.PostFormValue("id"))
	if id == "" {
		return StatusError{Code: http.StatusBadRequest, Err: ErrMissingID}
	}
	if err := sess.ctrl.Remove(id); err != nil {
		return StatusError{Code: eventStatus(err), Err: err}
	}
	return h.render(w, r, sess)
}

func (h *handler) serveReset(w http.ResponseWriter, r *http.Request) error {
	if sess, ok := h.session(r); ok {
		h.store.delete(sess.id)
	}
	sess, err := h.newSession(r.Context(), "")
	if err != nil {
		return err
	}
	h.setCookie(w, sess.id)
	return h.render(w, r, sess)
}

// activeSession returns the request's session. When the cookie is missing or
// expired a fresh session is started and reported so the event is not applied
// to it.
func (h *handler) activeSession(w http.ResponseWriter, r *http.Request) (*session, bool, error) {
	if sess, ok := h.session(r); ok {
		return sess, false, nil
	}
	sess, err := h.newSession(r.Context(), "")
	if err != nil {
		return nil, false, err
	}
	h.opts.Logger.Info("regions_session_restarted", "session", sess.id, "path", r.URL.Path)
	h.setCookie(w, sess.id)
	return sess, true, nil
}

func (h *handler) renderOrErr(w http.ResponseWriter, r *http.Request, sess *session, err error) error {
	if err != nil {
		return err
	}
	return h.render(w, r, sess)
}

func (h *handler) session(r *http.Request) (*session, bool) {
	cookie, err := r.Cookie(h.opts.CookieName)
	if err != nil {
		return nil, false
	}
	return h.store.get(cookie.Value)
}

func (h *handler) newSession(ctx context.Context, stored string) (*session, error) {
	roots, err := h.opts.Source.Children(ctx, h.opts.RootParentID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, StatusError{Code: http.StatusBadGateway, Err: fmt.Errorf("regions: load roots: %w", err)}
	}

	sess, err := h.store.create(func(id string) (*cascade.Controller, error) {
		logger := h.opts.Logger.With("session", id)
		ctrl, err := cascade.New(h.opts.Source, h.opts.controllerOptions(logger)...)
		if err != nil {
			return nil, err
		}
		if err := ctrl.Initialize(ctx, roots, stored); err != nil {
			var fetchErr *cascade.FetchError
			if !errors.As(err, &fetchErr) {
				return nil, err
			}
		}
		return ctrl, nil
	})
	if err != nil {
		return nil, err
	}
	h.opts.Logger.Info("regions_session_created", "session", sess.id, "seeded", stored != "")
	return sess, nil
}

func (h *handler) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    id,
		Path:     h.mount,
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, sess *session) error {
	out, err := h.renderer.Render(sess.ctrl.Snapshot(), html.URLs{
		Change: h.eventURL(routeChange),
		Add:    h.eventURL(routeAdd),
		Remove: h.eventURL(routeRemove),
	})
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", h.renderer.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return nil
	}
	_, _ = w.Write(out)
	return nil
}

func (h *handler) eventURL(route string) string {
	return strings.TrimRight(h.mount, "/") + "/" + route
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, route string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		h.opts.Logger.Debug("regions_request_cancelled", "route", route)
		return
	}
	code := http.StatusInternalServerError
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
	}
	if code >= http.StatusInternalServerError {
		h.opts.Logger.Error("regions_request_failed", "route", route, "method", r.Method, "status", code, "err", err)
	} else {
		h.opts.Logger.Debug("regions_request_rejected", "route", route, "status", code, "err", err)
	}
	http.Error(w, http.StatusText(code), code)
}

// eventStatus maps a controller error to the response status. Fetch failures
// and stale responses still render the fragment, which carries the alert.
func eventStatus(err error) int {
	var fetchErr *cascade.FetchError
	switch {
	case err == nil, errors.Is(err, cascade.ErrStale), errors.As(err, &fetchErr):
		return http.StatusOK
	case errors.Is(err, cascade.ErrIndexOutOfRange),
		errors.Is(err, cascade.ErrUnknownOption),
		errors.Is(err, cascade.ErrNotCommitted):
		return http.StatusBadRequest
	case errors.Is(err, cascade.ErrLocked), errors.Is(err, cascade.ErrDisabled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func methodAllowed(method string, allowed []string) bool {
	for _, m := range allowed {
		if m == method {
			return true
		}
	}
	return false
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}
