package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reclinepreview/internal/cli/output"
	"github.com/leapstack-labs/reclinepreview/internal/datastore"
	"github.com/leapstack-labs/reclinepreview/internal/state"
)

// NewResourceCommand creates the resource command group.
func NewResourceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Manage resources",
	}
	cmd.AddCommand(newResourceAddCommand())
	cmd.AddCommand(newResourceListCommand())
	return cmd
}

// ResourceAddOptions holds options for the resource add command.
type ResourceAddOptions struct {
	Name   string
	URL    string
	Format string
	CSV    string
	Extras []string
}

func newResourceAddCommand() *cobra.Command {
	opts := &ResourceAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a resource",
		Long: `Add a resource to the state database.

With --csv the file's rows are loaded into the datastore and the resource
is marked datastore_active, which makes it previewable.`,
		Example: `  # Register a remote resource
  reclinepreview resource add --name prices --url https://example.com/prices.csv

  # Load rows into the datastore
  reclinepreview resource add --name prices --csv prices.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResourceAdd(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Resource name")
	cmd.Flags().StringVar(&opts.URL, "url", "", "Resource URL")
	cmd.Flags().StringVar(&opts.Format, "format", "", "Resource format (default: CSV with --csv)")
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "CSV file to load into the datastore")
	cmd.Flags().StringArrayVar(&opts.Extras, "extra", nil, "Extra resource field as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runResourceAdd(cmd *cobra.Command, opts *ResourceAddOptions) error {
	extras, err := parseAssignments(opts.Extras)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, opts.CSV != "")
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	res := &state.Resource{
		Name:   opts.Name,
		URL:    opts.URL,
		Format: opts.Format,
		Extras: extras,
	}

	var table *datastore.Table
	if opts.CSV != "" {
		if cmdCtx.Datastore == nil {
			return errors.New("no datastore configured; set --datastore or datastore.type")
		}
		table, err = readCSVFile(opts.CSV)
		if err != nil {
			return err
		}
		if res.Format == "" {
			res.Format = "CSV"
		}
	}

	if err := storeResource(ctx, cmdCtx.Store, cmdCtx.Datastore, res, table, cmdCtx.Logger); err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(resourceInfo(res, 0))
	}
	r.Success(fmt.Sprintf("Added resource %s (%s)", res.Name, res.ID))
	if table != nil {
		r.Muted(fmt.Sprintf("Loaded %d rows with %d columns", len(table.Records), len(table.Fields)))
	}
	return nil
}

// storeResource stores res and, when table is set, loads it into ds. A load
// that fails removes the resource row and any partially written table.
func storeResource(ctx context.Context, store state.Store, ds datastore.Datastore, res *state.Resource, table *datastore.Table, logger *slog.Logger) error {
	if err := store.CreateResource(ctx, res); err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	logger.Debug("created resource", "id", res.ID, "name", res.Name)
	if table == nil {
		return nil
	}

	err := ds.Create(ctx, res.ID, table)
	if err == nil {
		err = store.SetDatastoreActive(ctx, res.ID, true)
		if err == nil {
			res.DatastoreActive = true
			return nil
		}
	}
	err = fmt.Errorf("failed to load rows: %w", err)

	cleanup := context.WithoutCancel(ctx)
	if derr := ds.Delete(cleanup, res.ID); derr != nil {
		logger.Warn("failed to drop datastore table", "id", res.ID, "error", derr)
	}
	if derr := store.DeleteResource(cleanup, res.ID); derr != nil {
		return errors.Join(err, fmt.Errorf("failed to remove resource %s: %w", res.ID, derr))
	}
	logger.Debug("removed resource after failed load", "id", res.ID)
	return err
}

func readCSVFile(path string) (*datastore.Table, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer func() { _ = f.Close() }()
	return datastore.ReadCSV(f)
}

func newResourceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List resources",
		Example: `  reclinepreview resource list
  reclinepreview resource list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResourceList(cmd)
		},
	}
}

func runResourceList(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	list, err := cmdCtx.Store.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list resources: %w", err)
	}

	infos := make([]output.ResourceInfo, 0, len(list))
	for _, res := range list {
		views, err := cmdCtx.Store.ListViews(ctx, res.ID)
		if err != nil {
			return fmt.Errorf("failed to list views of %s: %w", res.ID, err)
		}
		infos = append(infos, resourceInfo(res, len(views)))
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.ResourceListOutput{Resources: infos})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Resources (%d)", len(infos))))
		r.Println("")
		for _, info := range infos {
			r.Println(output.FormatHeader(2, info.Name))
			r.Println(output.FormatKeyValue("ID", info.ID))
			if info.URL != "" {
				r.Println(output.FormatKeyValue("URL", info.URL))
			}
			if info.Format != "" {
				r.Println(output.FormatKeyValue("Format", info.Format))
			}
			r.Println(output.FormatKeyValue("Datastore", yesNo(info.DatastoreActive)))
			r.Println(output.FormatKeyValue("Views", fmt.Sprintf("%d", info.Views)))
			r.Println("")
		}
		return nil
	default:
		if len(infos) == 0 {
			r.Muted("No resources. Add one with: reclinepreview resource add --name NAME --csv FILE")
			return nil
		}
		r.Header(1, fmt.Sprintf("Resources (%d)", len(infos)))
		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			rows = append(rows, []string{
				info.ID, info.Name, info.Format, yesNo(info.DatastoreActive), fmt.Sprintf("%d", info.Views),
			})
		}
		r.Table([]string{"ID", "Name", "Format", "Datastore", "Views"}, rows)
		return nil
	}
}

func resourceInfo(res *state.Resource, views int) output.ResourceInfo {
	return output.ResourceInfo{
		ID:              res.ID,
		Name:            res.Name,
		URL:             res.URL,
		Format:          res.Format,
		DatastoreActive: res.DatastoreActive,
		Extras:          res.Extras,
		Views:           views,
	}
}

// parseAssignments parses key=value pairs. Later keys win.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}
