// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/reclinepreview"
	"github.com/leapstack-labs/reclinepreview/internal/datastore"
	"github.com/leapstack-labs/reclinepreview/internal/datastore/duckdb"
	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/internal/testutil"
	"github.com/leapstack-labs/reclinepreview/internal/ui/notifier"
	"github.com/leapstack-labs/reclinepreview/internal/ui/render"
	"github.com/leapstack-labs/reclinepreview/internal/ui/resources"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Store        *state.SQLiteStore
	Datastore    *duckdb.Store
	Registry     *view.Registry
	Pipeline     *resources.Pipeline
	Renderer     *render.Renderer
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	Logger       *slog.Logger
}

// SetupTestFixture creates an in-memory state store and DuckDB datastore
// plus the embedded theme installed into a fresh registry.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)

	store, err := state.OpenSQLite(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ds, err := duckdb.Open(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })

	pipeline := resources.NewPipeline(reclinepreview.Theme, resources.WithLogger(logger))
	registry := view.NewRegistry(logger)
	require.NoError(t, view.Install(registry, pipeline))

	renderer, err := render.NewRenderer(pipeline, logger)
	require.NoError(t, err)

	return &TestFixture{
		Store:        store,
		Datastore:    ds,
		Registry:     registry,
		Pipeline:     pipeline,
		Renderer:     renderer,
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
		Logger:       logger,
	}
}

// CreateResource stores a resource.
func (f *TestFixture) CreateResource(t *testing.T, name string, active bool) *state.Resource {
	t.Helper()
	res := &state.Resource{Name: name, Format: "CSV", DatastoreActive: active}
	require.NoError(t, f.Store.CreateResource(context.Background(), res))
	return res
}

// CreateView stores a view of viewType for res.
func (f *TestFixture) CreateView(t *testing.T, res *state.Resource, viewType string, config map[string]any) *state.ResourceView {
	t.Helper()
	rv := &state.ResourceView{
		ResourceID: res.ID,
		ViewType:   viewType,
		Title:      viewType,
		Config:     config,
	}
	require.NoError(t, f.Store.CreateView(context.Background(), rv))
	return rv
}

// LoadCSV loads csv text into the datastore table of res.
func (f *TestFixture) LoadCSV(t *testing.T, res *state.Resource, csv string) {
	t.Helper()
	table, err := datastore.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.NoError(t, f.Datastore.Create(context.Background(), res.ID, table))
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
