package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-regioncascade/components/regions"
	"github.com/goliatone/go-regioncascade/internal/config"
	"github.com/goliatone/go-regioncascade/internal/logger"
	"github.com/goliatone/go-regioncascade/pkg/region"
	"github.com/goliatone/go-regioncascade/pkg/render/template/pongo"
	"github.com/goliatone/go-regioncascade/pkg/testsupport"
)

//go:embed templates/*.tpl
var pageTemplates embed.FS

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment")
	listen := flag.String("listen", "", "listen address (overrides configuration)")
	flag.Parse()

	if err := config.LoadEnvFiles(*envFile); err != nil {
		slog.Error("env_load_error", "err", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config_error", "err", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	l := logger.SetupWith(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, err := buildHandler(ctx, cfg, l)
	if err != nil {
		l.Error("setup_error", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           logger.AccessMiddleware(l)(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Warn("server_shutdown_error", "err", err)
		}
	}()

	l.Info("server_listen", "addr", cfg.Listen, "upstream", cfg.HasUpstream())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}

func buildHandler(ctx context.Context, cfg config.Config, l *slog.Logger) (http.Handler, error) {
	source, err := cfg.Source(ctx, l)
	if err != nil {
		return nil, err
	}

	component := regions.New(
		regions.WithSource(source),
		regions.WithRoutePath(cfg.RoutePath),
		regions.WithCookieName(cfg.Session.CookieName),
		regions.WithSessionTTL(cfg.Session.TTL),
		regions.WithRootParentID(cfg.Cascade.RootParentID),
		regions.WithLogger(l),
		regions.WithCascadeOptions(cfg.ControllerOptions(nil)...),
	)

	mux := http.NewServeMux()
	pickerURL, err := component.RegisterRoutes(mux, cfg.BasePath)
	if err != nil {
		return nil, err
	}

	// The fixture tree is also exposed through the fake API so the
	// endpoints can be inspected.
	if tree, ok := source.(*testsupport.Tree); ok {
		mux.Handle("/upstream/", http.StripPrefix("/upstream", testsupport.NewUpstream(tree)))
	}

	engine, err := pongo.New(pongo.WithFS(pageTemplates))
	if err != nil {
		return nil, err
	}
	page := func(w http.ResponseWriter, r *http.Request, submitted []string) {
		data := map[string]any{
			"title":      "Administrative regions",
			"picker_url": pickerURL,
			"submit_url": "/",
			"initial":    r.URL.Query().Get("initial"),
			"submitted":  submitted,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := engine.RenderTemplate("templates/index", data, w); err != nil {
			l.Error("page_render_error", "err", err)
		}
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		page(w, r, nil)
	})
	mux.HandleFunc("POST /{$}", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		ids := region.ParseStored(r.PostFormValue("administrative_levels"))
		l.Info("selection_submitted", "ids", ids)
		page(w, r, ids)
	})
	return mux, nil
}
