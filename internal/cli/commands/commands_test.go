package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/reclinepreview/internal/cli/config"
	"github.com/leapstack-labs/reclinepreview/internal/cli/output"
	"github.com/leapstack-labs/reclinepreview/internal/datastore"
	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/internal/testutil"

	_ "github.com/leapstack-labs/reclinepreview/internal/datastore/duckdb"
)

// setupProject loads a configuration rooted in a temp directory with
// the given output mode.
func setupProject(t *testing.T, mode string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("RECLINE_STATE_PATH", filepath.Join(dir, "state.db"))
	t.Setenv("RECLINE_DATASTORE_DSN", filepath.Join(dir, "datastore.duckdb"))
	t.Setenv("RECLINE_OUTPUT", mode)

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// addResource adds a resource through the CLI and returns its ID.
func addResource(t *testing.T, args ...string) output.ResourceInfo {
	t.Helper()
	out, err := execute(t, NewResourceCommand(), append([]string{"add"}, args...)...)
	require.NoError(t, err, out)

	var info output.ResourceInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info), out)
	return info
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{cmd: NewServeCommand(), use: "serve", flags: []string{"port", "watch", "minify"}},
		{cmd: newViewsListCommand(), use: "list", flags: []string{"resource"}},
		{cmd: newViewsSchemaCommand(), use: "schema <type>"},
		{cmd: newViewsRenderCommand(), use: "render <type>", flags: []string{"resource", "data", "html"}},
		{cmd: newResourceAddCommand(), use: "add", flags: []string{"name", "url", "format", "csv", "extra"}},
		{cmd: newResourceListCommand(), use: "list"},
		{cmd: newViewCreateCommand(), use: "create <resource> <type>", flags: []string{"title", "description", "set"}},
		{cmd: newViewListCommand(), use: "list <resource>"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestViewsList_JSON(t *testing.T) {
	setupProject(t, "json")

	out, err := execute(t, NewViewsCommand(), "list")
	require.NoError(t, err)

	var got output.ViewTypeListOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	require.Len(t, got.ViewTypes, 3)

	assert.Equal(t, "recline_grid", got.ViewTypes[0].Name)
	assert.Equal(t, "Grid", got.ViewTypes[0].Title)
	assert.Equal(t, "recline_view.html", got.ViewTypes[0].Template)
	assert.Equal(t, "recline_grid_form.html", got.ViewTypes[0].FormTemplate)
	assert.Nil(t, got.ViewTypes[0].CanView)

	graph := got.ViewTypes[1]
	assert.Equal(t, "recline_graph", graph.Name)
	assert.Contains(t, graph.Fields, "graph_type")
	assert.Contains(t, graph.Fields, "series_a")
	assert.NotContains(t, got.ViewTypes[2].Fields, "graph_type")
}

func TestViewsList_CanView(t *testing.T) {
	dir := setupProject(t, "json")

	csvPath := writeFile(t, dir, "prices.csv", "year,price\n2020,10\n")
	active := addResource(t, "--name", "prices", "--csv", csvPath)
	inactive := addResource(t, "--name", "remote", "--url", "https://example.com/data.xlsx")

	tests := []struct {
		name     string
		resource string
		want     bool
	}{
		{name: "datastore active", resource: active.ID, want: true},
		{name: "datastore inactive", resource: inactive.ID, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewViewsCommand(), "list", "--resource", tt.resource)
			require.NoError(t, err)

			var got output.ViewTypeListOutput
			require.NoError(t, json.Unmarshal([]byte(out), &got), out)
			for _, vt := range got.ViewTypes {
				require.NotNil(t, vt.CanView, vt.Name)
				assert.Equal(t, tt.want, *vt.CanView, vt.Name)
			}
		})
	}
}

func TestViewsList_Text(t *testing.T) {
	setupProject(t, "text")

	out, err := execute(t, NewViewsCommand(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "View types (3)")
	assert.Contains(t, out, "recline_map")
}

func TestViewsSchema(t *testing.T) {
	setupProject(t, "json")

	out, err := execute(t, NewViewsCommand(), "schema", "recline_graph")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "graph_type")
	assert.Contains(t, props, "offset")

	_, err = execute(t, NewViewsCommand(), "schema", "recline_pie")
	assert.Error(t, err)
}

func TestViewsRender(t *testing.T) {
	dir := setupProject(t, "json")
	resPath := writeFile(t, dir, "resource.yaml", "id: r1\nname: prices\ndatastore_active: true\n")
	dataPath := writeFile(t, dir, "graph.json", `{"graph_type": "bars", "group": "year"}`)

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, NewViewsCommand(), "render", "recline_graph", "--resource", resPath, "--data", dataPath)
		require.NoError(t, err)

		var got output.RenderOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got), out)
		assert.Equal(t, "recline_graph", got.ViewType)
		assert.Equal(t, "recline_view.html", got.Template)
		assert.Contains(t, got.HTML, `data-module="recline_view"`)
		assert.Contains(t, got.HTML, "bars")
		assert.Contains(t, got.HTML, "prices")
	})

	t.Run("html", func(t *testing.T) {
		out, err := execute(t, NewViewsCommand(), "render", "recline_grid", "--html")
		require.NoError(t, err)
		assert.Contains(t, out, `<div class="recline-view"`)
		assert.Contains(t, out, "recline_grid")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := execute(t, NewViewsCommand(), "render", "recline_pie")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "recline_pie")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, NewViewsCommand(), "render", "recline_grid", "--resource", filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestReadRecord(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    map[string]any
		wantErr bool
	}{
		{name: "yaml", content: "name: prices\nrows: 3\n", want: map[string]any{"name": "prices", "rows": 3}},
		{name: "json", content: `{"name": "prices", "active": true}`, want: map[string]any{"name": "prices", "active": true}},
		{name: "empty", content: "  \n", want: map[string]any{}},
		{name: "not a mapping", content: "- a\n- b\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".yaml", tt.content)
			got, err := readRecord(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := readRecord("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResourceAdd(t *testing.T) {
	dir := setupProject(t, "json")

	t.Run("with csv", func(t *testing.T) {
		csvPath := writeFile(t, dir, "prices.csv", "year,price\n2020,10\n2021,12\n")
		info := addResource(t, "--name", "prices", "--csv", csvPath, "--extra", "unit=EUR")

		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "prices", info.Name)
		assert.Equal(t, "CSV", info.Format)
		assert.True(t, info.DatastoreActive)
		assert.Equal(t, map[string]any{"unit": "EUR"}, info.Extras)
	})

	t.Run("without csv", func(t *testing.T) {
		info := addResource(t, "--name", "remote", "--url", "https://example.com/a.xlsx", "--format", "XLSX")
		assert.False(t, info.DatastoreActive)
		assert.Equal(t, "XLSX", info.Format)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := execute(t, NewResourceCommand(), "add", "--url", "https://example.com")
		assert.Error(t, err)
	})

	t.Run("bad extra", func(t *testing.T) {
		_, err := execute(t, NewResourceCommand(), "add", "--name", "x", "--extra", "novalue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "key=value")
	})

	t.Run("list", func(t *testing.T) {
		out, err := execute(t, NewResourceCommand(), "list")
		require.NoError(t, err)

		var got output.ResourceListOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got), out)
		require.Len(t, got.Resources, 2)
		assert.Equal(t, "prices", got.Resources[0].Name)
		assert.Equal(t, "remote", got.Resources[1].Name)
	})
}

// failingDatastore rejects every load and records dropped tables.
type failingDatastore struct {
	datastore.Datastore
	deleted []string
}

func (f *failingDatastore) Create(context.Context, string, *datastore.Table) error {
	return errors.New("disk full")
}

func (f *failingDatastore) Delete(_ context.Context, resourceID string) error {
	f.deleted = append(f.deleted, resourceID)
	return nil
}

func TestStoreResource_FailedLoadRemovesResource(t *testing.T) {
	ctx := context.Background()
	store, err := state.OpenSQLite(":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	table, err := datastore.ReadCSV(strings.NewReader("year\n2020\n"))
	require.NoError(t, err)
	ds := &failingDatastore{}
	res := &state.Resource{Name: "prices", Format: "CSV"}

	err = storeResource(ctx, store, ds, res, table, testutil.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, res.DatastoreActive)
	assert.Equal(t, []string{res.ID}, ds.deleted)

	list, err := store.ListResources(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "no resource row is left behind")
}

func TestResourceList_Markdown(t *testing.T) {
	setupProject(t, "json")
	addResource(t, "--name", "prices")

	t.Setenv("RECLINE_OUTPUT", "markdown")
	_, err := config.LoadConfig("", nil)
	require.NoError(t, err)

	out, err := execute(t, NewResourceCommand(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "# Resources (1)")
	assert.Contains(t, out, "## prices")
	assert.Contains(t, out, "- **Datastore:** no")
}

func TestViewCreate(t *testing.T) {
	dir := setupProject(t, "json")
	csvPath := writeFile(t, dir, "prices.csv", "year,price\n2020,10\n")
	active := addResource(t, "--name", "prices", "--csv", csvPath)
	inactive := addResource(t, "--name", "remote")

	tests := []struct {
		name       string
		args       []string
		wantErr    string
		wantTitle  string
		wantConfig map[string]any
	}{
		{
			name:       "grid with defaults",
			args:       []string{active.ID, "recline_grid"},
			wantTitle:  "Grid",
			wantConfig: map[string]any{},
		},
		{
			name:       "graph with config",
			args:       []string{active.ID, "recline_graph", "--title", "Prices", "--set", "graph_type=bars", "--set", "limit=10", "--set", "unknown=x"},
			wantTitle:  "Prices",
			wantConfig: map[string]any{"graph_type": "bars", "limit": 10.0},
		},
		{
			name:    "invalid integer",
			args:    []string{active.ID, "recline_grid", "--set", "limit=ten"},
			wantErr: "Invalid integer",
		},
		{
			name:    "negative offset",
			args:    []string{active.ID, "recline_map", "--set", "offset=-1"},
			wantErr: "Must be a natural number",
		},
		{
			name:    "unknown type",
			args:    []string{active.ID, "recline_pie"},
			wantErr: "recline_pie",
		},
		{
			name:    "not viewable",
			args:    []string{inactive.ID, "recline_grid"},
			wantErr: "cannot preview",
		},
		{
			name:    "unknown resource",
			args:    []string{"missing", "recline_grid"},
			wantErr: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewViewCommand(), append([]string{"create"}, tt.args...)...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err, out)

			var got output.ViewInfo
			require.NoError(t, json.Unmarshal([]byte(out), &got), out)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantConfig, got.Config)
		})
	}

	out, err := execute(t, NewViewCommand(), "list", active.ID)
	require.NoError(t, err)
	var views []output.ViewInfo
	require.NoError(t, json.Unmarshal([]byte(out), &views), out)
	require.Len(t, views, 2)
	assert.Equal(t, "recline_grid", views[0].ViewType)
	assert.Equal(t, "recline_graph", views[1].ViewType)
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"a=1", "b=x=y", "a=2", " c =3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "2", "b": "x=y", "c": "3"}, got)

	_, err = parseAssignments([]string{"=1"})
	assert.Error(t, err)
}
