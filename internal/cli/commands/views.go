package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/reclinepreview/internal/cli/output"
	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/internal/ui/render"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// NewViewsCommand creates the views command group for the registered view
// types.
func NewViewsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Inspect and render the registered view types",
	}
	cmd.AddCommand(newViewsListCommand())
	cmd.AddCommand(newViewsSchemaCommand())
	cmd.AddCommand(newViewsRenderCommand())
	return cmd
}

func newViewsListCommand() *cobra.Command {
	var resourceID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered view types",
		Long: `List the registered view types with their templates and configuration
fields.

With --resource, also report whether each type can preview that resource.`,
		Example: `  # List view types
  reclinepreview views list

  # Check which types can preview a resource
  reclinepreview views list --resource 3f2a... -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runViewsList(cmd, resourceID)
		},
	}
	cmd.Flags().StringVar(&resourceID, "resource", "", "Resource ID to check viewability against")
	return cmd
}

func runViewsList(cmd *cobra.Command, resourceID string) error {
	var (
		cmdCtx *CommandContext
		err    error
	)
	if resourceID != "" {
		var cleanup func()
		cmdCtx, cleanup, err = NewCommandContext(cmd, false)
		if err != nil {
			return err
		}
		defer cleanup()
	} else {
		cmdCtx, err = NewCommandContextWithoutStore(cmd)
		if err != nil {
			return err
		}
	}

	var res view.Resource
	if resourceID != "" {
		stored, err := cmdCtx.Store.GetResource(cmd.Context(), resourceID)
		if err != nil {
			return fmt.Errorf("failed to load resource %s: %w", resourceID, err)
		}
		res = stored.Record()
	}

	infos := make([]output.ViewTypeInfo, 0, len(cmdCtx.Registry.Names()))
	for _, c := range cmdCtx.Registry.List() {
		info := c.Info()
		vt := output.ViewTypeInfo{
			Name:         info.Name,
			Title:        info.Title,
			Template:     c.TemplateName(),
			FormTemplate: c.FormTemplateName(),
			Fields:       info.Schema.Names(),
		}
		if res != nil {
			ok := c.CanView(res)
			vt.CanView = &ok
		}
		infos = append(infos, vt)
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.ViewTypeListOutput{ViewTypes: infos})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("View types (%d)", len(infos))))
		r.Println("")
		for _, vt := range infos {
			r.Println(output.FormatHeader(2, vt.Name))
			r.Println(output.FormatKeyValue("Title", vt.Title))
			r.Println(output.FormatKeyValue("Template", vt.Template))
			r.Println(output.FormatKeyValue("Form", vt.FormTemplate))
			r.Println(output.FormatKeyValue("Fields", strings.Join(vt.Fields, ", ")))
			if vt.CanView != nil {
				r.Println(output.FormatKeyValue("Can view", yesNo(*vt.CanView)))
			}
			r.Println("")
		}
		return nil
	default:
		r.Header(1, fmt.Sprintf("View types (%d)", len(infos)))
		headers := []string{"Name", "Title", "Form", "Fields"}
		if res != nil {
			headers = append(headers, "Can view")
		}
		rows := make([][]string, 0, len(infos))
		for _, vt := range infos {
			row := []string{vt.Name, vt.Title, vt.FormTemplate, strings.Join(vt.Fields, ", ")}
			if vt.CanView != nil {
				row = append(row, yesNo(*vt.CanView))
			}
			rows = append(rows, row)
		}
		r.Table(headers, rows)
		return nil
	}
}

func newViewsSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "schema <type>",
		Short:   "Print the JSON Schema of a view type's configuration",
		Example: `  reclinepreview views schema recline_graph`,
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return variantNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := view.ParseVariant(args[0])
			if err != nil {
				return err
			}
			b, err := view.JSONSchema(v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

// RenderOptions holds options for the views render command.
type RenderOptions struct {
	ResourceFile string
	DataFile     string
	HTML         bool
}

func newViewsRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <type>",
		Short: "Render a view type's template for a resource",
		Long: `Render the view template of a view type for a resource and view
record read from YAML or JSON files.

Output adapts to environment:
  - Terminal: the rendered HTML
  - Piped/Scripted: the HTML converted to Markdown
  - JSON: view type, template and HTML

Use --html to always print the HTML.`,
		Example: `  # Render a grid view
  reclinepreview views render recline_grid --resource resource.yaml

  # Render a graph with its configuration
  reclinepreview views render recline_graph --resource resource.yaml --data graph.yaml --html`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return variantNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewsRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.ResourceFile, "resource", "", "YAML or JSON file with the resource record")
	cmd.Flags().StringVar(&opts.DataFile, "data", "", "YAML or JSON file with the view record")
	cmd.Flags().BoolVar(&opts.HTML, "html", false, "Print HTML regardless of output mode")

	return cmd
}

func runViewsRender(cmd *cobra.Command, viewType string, opts *RenderOptions) error {
	cmdCtx, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return err
	}

	c, err := cmdCtx.Registry.Lookup(viewType)
	if err != nil {
		return err
	}

	res, err := readRecord(opts.ResourceFile)
	if err != nil {
		return fmt.Errorf("failed to read resource: %w", err)
	}
	data, err := readRecord(opts.DataFile)
	if err != nil {
		return fmt.Errorf("failed to read view data: %w", err)
	}
	if _, ok := data["view_type"]; !ok {
		data["view_type"] = viewType
	}

	html, err := cmdCtx.Templates.RenderView(c, view.Resource(res), view.ViewData(data))
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", viewType, err)
	}

	r := cmdCtx.Renderer
	if opts.HTML {
		r.Println(html)
		return nil
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.RenderOutput{
			ViewType: viewType,
			Template: c.TemplateName(),
			HTML:     html,
		})
	case output.ModeMarkdown:
		md, err := render.ToMarkdown(html)
		if err != nil {
			return fmt.Errorf("failed to convert to markdown: %w", err)
		}
		r.Println(output.FormatHeader(1, c.Info().Title+" view"))
		r.Println("")
		r.Println(output.FormatKeyValue("Template", c.TemplateName()))
		r.Println("")
		r.Println(md)
		r.Println("")
		r.Println(output.FormatCodeBlock("html", html))
		return nil
	default:
		r.Println(html)
		return nil
	}
}

// readRecord decodes a YAML or JSON mapping. An empty path yields an empty
// record.
func readRecord(path string) (map[string]any, error) {
	record := map[string]any{}
	if path == "" {
		return record, nil
	}
	b, err := os.ReadFile(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return record, nil
	}
	if err := yaml.Unmarshal(b, &record); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if record == nil {
		return nil, errors.New(path + ": expected a mapping")
	}
	return record, nil
}

func variantNames() []string {
	names := make([]string, 0, len(view.Variants))
	for _, v := range view.Variants {
		names = append(names, v.Name())
	}
	return names
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// viewInfo converts a stored view for JSON output.
func viewInfo(v *state.ResourceView) output.ViewInfo {
	cfg := v.Config
	if cfg == nil {
		cfg = map[string]any{}
	}
	return output.ViewInfo{
		ID:          v.ID,
		ResourceID:  v.ResourceID,
		ViewType:    v.ViewType,
		Title:       v.Title,
		Description: v.Description,
		Config:      cfg,
		Position:    v.Position,
	}
}
