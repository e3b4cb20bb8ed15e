package resources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/reclinepreview/internal/ui/features"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	return NewHandlers(fixture.Store, fixture.Registry, fixture.SessionStore, fixture.Logger), fixture
}

func TestHomePage(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	fixture.CreateResource(t, "prices", true)
	fixture.CreateResource(t, "scans", false)

	rec := httptest.NewRecorder()
	h.HomePage(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		"<title>Resources - Recline Preview</title>",
		">prices</a>",
		"Graph, Grid, Map",
		">scans</a>",
		"no preview available",
	} {
		assert.Contains(t, body, want)
	}
}

func TestHomePage_Empty(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := httptest.NewRecorder()
	h.HomePage(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No resources yet")
}

func TestResourcePage(t *testing.T) {
	tests := []struct {
		name       string
		active     bool
		id         string
		wantStatus int
		wantBody   []string
		notBody    []string
	}{
		{
			name:       "viewable resource offers every view type",
			active:     true,
			wantStatus: http.StatusOK,
			wantBody: []string{
				"<h1>prices</h1>",
				`<option value="recline_grid">Grid</option>`,
				`<option value="recline_graph">Graph</option>`,
				`<option value="recline_map">Map</option>`,
				`href="/views/`,
			},
		},
		{
			name:       "resource without datastore data offers nothing",
			active:     false,
			wantStatus: http.StatusOK,
			wantBody:   []string{"cannot be previewed"},
			notBody:    []string{`<select name="type">`},
		},
		{
			name:       "unknown resource",
			id:         "missing",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fixture := setupTestHandlers(t)
			res := fixture.CreateResource(t, "prices", tt.active)
			fixture.CreateView(t, res, "recline_grid", nil)

			id := res.ID
			if tt.id != "" {
				id = tt.id
			}
			req := features.RequestWithPathParam(httptest.NewRequest(http.MethodGet, "/resources/"+id, nil), "id", id)
			rec := httptest.NewRecorder()
			h.ResourcePage(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}
			for _, not := range tt.notBody {
				assert.NotContains(t, rec.Body.String(), not)
			}
		})
	}
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestCreateView(t *testing.T) {
	tests := []struct {
		name       string
		active     bool
		form       url.Values
		wantStatus int
		wantTitle  string
	}{
		{
			name:       "default title is the variant title",
			active:     true,
			form:       url.Values{"type": {"recline_graph"}},
			wantStatus: http.StatusSeeOther,
			wantTitle:  "Graph",
		},
		{
			name:       "explicit title",
			active:     true,
			form:       url.Values{"type": {"recline_grid"}, "title": {"  All rows  "}},
			wantStatus: http.StatusSeeOther,
			wantTitle:  "All rows",
		},
		{
			name:       "unknown type",
			active:     true,
			form:       url.Values{"type": {"recline_table"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "resource not viewable",
			active:     false,
			form:       url.Values{"type": {"recline_grid"}},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fixture := setupTestHandlers(t)
			res := fixture.CreateResource(t, "prices", tt.active)

			req := features.RequestWithPathParam(postForm("/resources/"+res.ID+"/views", tt.form), "id", res.ID)
			rec := httptest.NewRecorder()
			h.CreateView(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			views, err := fixture.Store.ListViews(context.Background(), res.ID)
			require.NoError(t, err)
			if tt.wantStatus != http.StatusSeeOther {
				assert.Empty(t, views)
				return
			}

			require.Len(t, views, 1)
			assert.Equal(t, tt.wantTitle, views[0].Title)
			assert.Equal(t, tt.form.Get("type"), views[0].ViewType)
			assert.Equal(t, "/views/"+views[0].ID, rec.Header().Get("Location"))
			assert.NotEmpty(t, rec.Header().Get("Set-Cookie"), "flash is stored in the session")
		})
	}
}

func TestCreateView_UnknownResource(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := features.RequestWithPathParam(postForm("/resources/missing/views", url.Values{"type": {"recline_grid"}}), "id", "missing")
	rec := httptest.NewRecorder()
	h.CreateView(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
