// Package ui provides the web host that previews resources through the
// registered view types.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/reclinepreview"
	"github.com/leapstack-labs/reclinepreview/internal/datastore"
	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/internal/ui/notifier"
	"github.com/leapstack-labs/reclinepreview/internal/ui/render"
	"github.com/leapstack-labs/reclinepreview/internal/ui/resources"
	"github.com/leapstack-labs/reclinepreview/internal/ui/router"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// watchDebounce coalesces bursts of file events into one reload.
const watchDebounce = 100 * time.Millisecond

// Server is the main UI server.
type Server struct {
	store        state.Store
	datastore    datastore.Datastore
	registry     *view.Registry
	pipeline     *resources.Pipeline
	renderer     *render.Renderer
	sessionStore *sessions.CookieStore
	port         int
	watch        bool
	themeDir     string
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Store     state.Store
	Datastore datastore.Datastore
	// ThemeDir is an on-disk root holding theme/public and theme/templates.
	// Empty serves the embedded theme.
	ThemeDir      string
	Port          int
	Watch         bool
	Minify        bool
	CacheControl  string
	SessionSecret string
	Logger        *slog.Logger
}

// NewServer installs the view types against the theme and creates a UI
// server instance.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var root fs.FS = reclinepreview.Theme
	if cfg.ThemeDir != "" {
		root = os.DirFS(cfg.ThemeDir)
	}

	pipeline := resources.NewPipeline(root,
		resources.WithMinify(cfg.Minify),
		resources.WithCacheControl(cfg.CacheControl),
		resources.WithLogger(logger))

	registry := view.NewRegistry(logger)
	if err := view.Install(registry, pipeline); err != nil {
		return nil, fmt.Errorf("failed to install view types: %w", err)
	}

	renderer, err := render.NewRenderer(pipeline, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		store:        cfg.Store,
		datastore:    cfg.Datastore,
		registry:     registry,
		pipeline:     pipeline,
		renderer:     renderer,
		sessionStore: sessionStore,
		port:         cfg.Port,
		watch:        cfg.Watch && cfg.ThemeDir != "",
		themeDir:     cfg.ThemeDir,
		logger:       logger,
		notifier:     notifier.New(),
	}, nil
}

// Handler returns the router serving every UI route.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	deps := router.Deps{
		Store:        s.store,
		Datastore:    s.datastore,
		Registry:     s.registry,
		Pipeline:     s.pipeline,
		Renderer:     s.renderer,
		SessionStore: s.sessionStore,
		Notifier:     s.notifier,
		Logger:       s.logger,
	}
	if err := router.SetupRoutes(r, deps); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start file watcher if enabled
	if s.watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Registry returns the installed view types.
func (s *Server) Registry() *view.Registry {
	return s.registry
}

// reloadTheme re-parses templates, drops cached bundles and tells open
// pages to reload.
func (s *Server) reloadTheme() {
	if err := s.renderer.Reload(); err != nil {
		s.logger.Error("template reload failed", "error", err)
	}
	s.pipeline.Invalidate()
	s.notifier.Publish(notifier.ThemeTopic)
}

// watchFiles watches the on-disk theme for template and asset changes.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dirs := append(s.pipeline.PublicDirs(), s.pipeline.TemplateDirs()...)
	for _, dir := range dirs {
		if err := watchDirRecursive(watcher, filepath.Join(s.themeDir, filepath.FromSlash(dir))); err != nil {
			s.logger.Error("failed to watch theme directory", "dir", dir, "error", err)
			// Don't fail - continue without watching
		}
	}

	// Debounce timer
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			switch filepath.Ext(event.Name) {
			case ".html", ".js", ".css":
			default:
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				s.logger.Debug("theme changed, reloading", "file", name)
				s.reloadTheme()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
