package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reclinepreview/internal/cli/output"
	"github.com/leapstack-labs/reclinepreview/internal/state"
)

// NewViewCommand creates the view command group for stored resource views.
func NewViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Manage the views of a resource",
	}
	cmd.AddCommand(newViewCreateCommand())
	cmd.AddCommand(newViewListCommand())
	return cmd
}

// ViewCreateOptions holds options for the view create command.
type ViewCreateOptions struct {
	Title       string
	Description string
	Set         []string
}

func newViewCreateCommand() *cobra.Command {
	opts := &ViewCreateOptions{}

	cmd := &cobra.Command{
		Use:   "create <resource> <type>",
		Short: "Create a view of a resource",
		Long: `Create a view of a resource. Configuration fields given with --set are
validated against the view type's schema; fields the type does not know
are dropped.`,
		Example: `  # Add a grid
  reclinepreview view create 3f2a... recline_grid

  # Add a bar chart
  reclinepreview view create 3f2a... recline_graph --set graph_type=bars --set group_column=year --set series_a=price`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewCreate(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "View title (default: the view type title)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "View description")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "Configuration field as key=value (repeatable)")

	return cmd
}

func runViewCreate(cmd *cobra.Command, resourceID, viewType string, opts *ViewCreateOptions) error {
	raw, err := parseAssignments(opts.Set)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	c, err := cmdCtx.Registry.Lookup(viewType)
	if err != nil {
		return err
	}

	res, err := cmdCtx.Store.GetResource(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("failed to load resource %s: %w", resourceID, err)
	}
	if !c.CanView(res.Record()) {
		return fmt.Errorf("view type %s cannot preview resource %s: datastore is not active", viewType, res.Name)
	}

	cfg, err := c.Info().Schema.Validate(raw)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = c.Info().Title
	}
	v := &state.ResourceView{
		ResourceID:  res.ID,
		ViewType:    viewType,
		Title:       title,
		Description: opts.Description,
		Config:      cfg,
	}
	if err := cmdCtx.Store.CreateView(ctx, v); err != nil {
		return fmt.Errorf("failed to create view: %w", err)
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(viewInfo(v))
	}
	r.Success(fmt.Sprintf("Created %s view %q (%s)", viewType, v.Title, v.ID))
	return nil
}

func newViewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list <resource>",
		Short:   "List the views of a resource",
		Example: `  reclinepreview view list 3f2a... -o json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewList(cmd, args[0])
		},
	}
}

func runViewList(cmd *cobra.Command, resourceID string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if _, err := cmdCtx.Store.GetResource(ctx, resourceID); err != nil {
		return fmt.Errorf("failed to load resource %s: %w", resourceID, err)
	}
	views, err := cmdCtx.Store.ListViews(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("failed to list views: %w", err)
	}

	infos := make([]output.ViewInfo, 0, len(views))
	for _, v := range views {
		infos = append(infos, viewInfo(v))
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(infos)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Views (%d)", len(infos))))
		r.Println("")
		for _, v := range infos {
			r.Println(output.FormatHeader(2, v.Title))
			r.Println(output.FormatKeyValue("ID", v.ID))
			r.Println(output.FormatKeyValue("Type", v.ViewType))
			for _, k := range sortedKeys(v.Config) {
				r.Println(output.FormatKeyValue(k, fmt.Sprint(v.Config[k])))
			}
			r.Println("")
		}
		return nil
	default:
		rows := make([][]string, 0, len(infos))
		for _, v := range infos {
			rows = append(rows, []string{fmt.Sprintf("%d", v.Position), v.ID, v.ViewType, v.Title})
		}
		r.Header(1, fmt.Sprintf("Views (%d)", len(infos)))
		r.Table([]string{"#", "ID", "Type", "Title"}, rows)
		return nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
