package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reclinepreview/internal/ui"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the preview server",
		Long: `Start a local web server that lists resources and renders their
grid, graph and map views.

The server provides:
- Resource pages with their views
- View configuration forms
- Live view updates over server-sent events
- A datastore search API for the preview widgets`,
		Example: `  # Start on the default port
  reclinepreview serve

  # Start on a custom port
  reclinepreview serve --port 3000

  # Serve a theme from disk and reload it on change
  reclinepreview serve --theme-dir ./mytheme --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().Bool("watch", false, "Reload the theme when files under --theme-dir change")
	cmd.Flags().Bool("minify", false, "Minify bundled assets")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	server, err := ui.NewServer(ui.Config{
		Store:         cmdCtx.Store,
		Datastore:     cmdCtx.Datastore,
		ThemeDir:      cfg.ThemeDir,
		Port:          cfg.Server.Port,
		Watch:         cfg.Server.Watch,
		Minify:        cfg.Server.Minify,
		CacheControl:  cfg.Server.CacheControl,
		SessionSecret: cfg.Server.SessionSecret,
		Logger:        cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	r := cmdCtx.Renderer
	r.Success(fmt.Sprintf("Serving previews on http://localhost:%d", cfg.Server.Port))
	if cmdCtx.Datastore == nil {
		r.Warning("No datastore configured; previews will not load rows")
	}
	r.Muted("Press Ctrl+C to stop")

	return server.Serve(cmd.Context())
}
