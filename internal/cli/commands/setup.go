package commands

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reclinepreview"
	"github.com/leapstack-labs/reclinepreview/internal/cli/config"
	"github.com/leapstack-labs/reclinepreview/internal/cli/output"
	intconfig "github.com/leapstack-labs/reclinepreview/internal/config"
	"github.com/leapstack-labs/reclinepreview/internal/datastore"
	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/internal/ui/render"
	"github.com/leapstack-labs/reclinepreview/internal/ui/resources"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Renderer  *output.Renderer
	Store     state.Store
	Datastore datastore.Datastore
	Registry  *view.Registry
	Templates *render.Renderer
}

// NewCommandContext creates a CommandContext with the state store open.
// withDatastore also opens the configured datastore.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command, withDatastore bool) (*CommandContext, func(), error) {
	cmdCtx, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg := cmdCtx.Cfg

	if err := config.EnsureStateDir(cfg); err != nil {
		return nil, nil, err
	}
	store, err := state.OpenSQLite(cfg.StatePath, cmdCtx.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}
	cmdCtx.Store = store

	if withDatastore && cfg.Datastore.Type != "" {
		ds, err := datastore.Open(cmd.Context(), cfg.Datastore, cmdCtx.Logger)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to open datastore: %w", err)
		}
		cmdCtx.Datastore = ds
	}

	cleanup := func() {
		if cmdCtx.Datastore != nil {
			_ = cmdCtx.Datastore.Close()
		}
		_ = store.Close()
	}

	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without a store.
// Useful for commands that only need the view types and templates.
func NewCommandContextWithoutStore(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	registry, templates, err := loadTheme(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:       cfg,
		Logger:    logger,
		Renderer:  r,
		Registry:  registry,
		Templates: templates,
	}, nil
}

// getConfig returns the current configuration or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return intconfig.Default()
}

// loadTheme installs every view type against the configured theme and
// parses its templates.
func loadTheme(cfg *config.Config, logger *slog.Logger) (*view.Registry, *render.Renderer, error) {
	if err := cfg.ValidateThemeDir(); err != nil {
		return nil, nil, err
	}
	var root fs.FS = reclinepreview.Theme
	if cfg.ThemeDir != "" {
		root = os.DirFS(cfg.ThemeDir)
	}

	pipeline := resources.NewPipeline(root, resources.WithLogger(logger))
	registry := view.NewRegistry(logger)
	if err := view.Install(registry, pipeline); err != nil {
		return nil, nil, fmt.Errorf("failed to install view types: %w", err)
	}
	templates, err := render.NewRenderer(pipeline, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load templates: %w", err)
	}
	return registry, templates, nil
}
