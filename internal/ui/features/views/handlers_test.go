package views

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/internal/ui/features"
	"github.com/leapstack-labs/reclinepreview/internal/ui/notifier"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	h := NewHandlers(fixture.Store, fixture.Registry, fixture.Renderer, fixture.SessionStore, fixture.Notifier, fixture.Logger)
	return h, fixture
}

func withID(r *http.Request, id string) *http.Request {
	return features.RequestWithPathParam(r, "id", id)
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestViewPage(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	res := fixture.CreateResource(t, "prices", true)
	rv := fixture.CreateView(t, res, "recline_grid", map[string]any{"limit": 5})

	rec := httptest.NewRecorder()
	h.ViewPage(rec, withID(httptest.NewRequest(http.MethodGet, "/views/"+rv.ID, nil), rv.ID))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		"<title>recline_grid - Recline Preview</title>",
		`<div id="view-` + rv.ID + `">`,
		`data-module="recline_view"`,
		`&#34;view_type&#34;:&#34;recline_grid&#34;`,
		`&#34;limit&#34;:5`,
		`&#34;datastore_active&#34;:true`,
		"/views/" + rv.ID + "/updates",
		"/bundles/ckanext-reclinepreview.js",
	} {
		assert.Contains(t, body, want)
	}
}

func TestViewPage_NotFound(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := httptest.NewRecorder()
	h.ViewPage(rec, withID(httptest.NewRequest(http.MethodGet, "/views/missing", nil), "missing"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViewPage_ResourceNotViewable(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	res := fixture.CreateResource(t, "scans", false)
	rv := fixture.CreateView(t, res, "recline_grid", nil)

	rec := httptest.NewRecorder()
	h.ViewPage(rec, withID(httptest.NewRequest(http.MethodGet, "/views/"+rv.ID, nil), rv.ID))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `Grid cannot display resource "scans": it has no datastore data`)
	assert.NotContains(t, rec.Body.String(), `data-module="recline_view"`)
}

func TestViewPage_UnknownViewType(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	res := fixture.CreateResource(t, "prices", true)
	rv := fixture.CreateView(t, res, "recline_table", nil)

	rec := httptest.NewRecorder()
	h.ViewPage(rec, withID(httptest.NewRequest(http.MethodGet, "/views/"+rv.ID, nil), rv.ID))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEditForm(t *testing.T) {
	tests := []struct {
		name     string
		viewType string
		config   map[string]any
		wantBody []string
		notBody  []string
	}{
		{
			name:     "grid",
			viewType: "recline_grid",
			config:   map[string]any{"offset": 3},
			wantBody: []string{`name="offset"`, `value="3"`, `name="limit"`},
			notBody:  []string{`name="graph_type"`},
		},
		{
			name:     "graph",
			viewType: "recline_graph",
			config:   map[string]any{"graph_type": "bars"},
			wantBody: []string{`<option value="bars" selected>Bars</option>`, `name="group_column"`, `name="series_a"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fixture := setupTestHandlers(t)
			res := fixture.CreateResource(t, "prices", true)
			rv := fixture.CreateView(t, res, tt.viewType, tt.config)

			rec := httptest.NewRecorder()
			h.EditForm(rec, withID(httptest.NewRequest(http.MethodGet, "/views/"+rv.ID+"/edit", nil), rv.ID))

			assert.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, `action="/views/`+rv.ID+`/edit"`)
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want)
			}
			for _, not := range tt.notBody {
				assert.NotContains(t, body, not)
			}
		})
	}
}

func TestEditSubmit(t *testing.T) {
	tests := []struct {
		name       string
		viewType   string
		form       url.Values
		wantStatus int
		wantConfig map[string]any
		wantBody   []string
	}{
		{
			name:       "valid grid config",
			viewType:   "recline_grid",
			form:       url.Values{"offset": {"5"}, "limit": {""}},
			wantStatus: http.StatusSeeOther,
			wantConfig: map[string]any{"offset": 5.0},
		},
		{
			name:       "graph fields are stored",
			viewType:   "recline_graph",
			form:       url.Values{"graph_type": {"lines"}, "group_column": {"year"}, "series_a": {"price"}, "ignored": {"x"}},
			wantStatus: http.StatusSeeOther,
			wantConfig: map[string]any{"graph_type": "lines", "group_column": "year", "series_a": "price"},
		},
		{
			name:       "negative offset",
			viewType:   "recline_grid",
			form:       url.Values{"offset": {"-1"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantConfig: map[string]any{},
			wantBody:   []string{"Must be a natural number", "Please correct the errors below."},
		},
		{
			name:       "not an integer",
			viewType:   "recline_map",
			form:       url.Values{"limit": {"ten"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantConfig: map[string]any{},
			wantBody:   []string{"Invalid integer", `value="ten"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fixture := setupTestHandlers(t)
			res := fixture.CreateResource(t, "prices", true)
			rv := fixture.CreateView(t, res, tt.viewType, nil)

			updates := fixture.Notifier.Subscribe(rv.ID)
			defer fixture.Notifier.Unsubscribe(updates)

			rec := httptest.NewRecorder()
			h.EditSubmit(rec, withID(postForm("/views/"+rv.ID+"/edit", tt.form), rv.ID))

			assert.Equal(t, tt.wantStatus, rec.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}

			got, err := fixture.Store.GetView(context.Background(), rv.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, got.Config)

			select {
			case <-updates:
				assert.Equal(t, http.StatusSeeOther, tt.wantStatus, "only saved configs are published")
				assert.Equal(t, "/views/"+rv.ID, rec.Header().Get("Location"))
			default:
				assert.NotEqual(t, http.StatusSeeOther, tt.wantStatus, "saved config was not published")
			}
		})
	}
}

func TestDeleteView(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	res := fixture.CreateResource(t, "prices", true)
	rv := fixture.CreateView(t, res, "recline_grid", nil)

	rec := httptest.NewRecorder()
	h.DeleteView(rec, withID(httptest.NewRequest(http.MethodPost, "/views/"+rv.ID+"/delete", nil), rv.ID))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/resources/"+res.ID, rec.Header().Get("Location"))
	_, err := fixture.Store.GetView(context.Background(), rv.ID)
	assert.ErrorIs(t, err, state.ErrNotFound)

	rec = httptest.NewRecorder()
	h.DeleteView(rec, withID(httptest.NewRequest(http.MethodPost, "/views/"+rv.ID+"/delete", nil), rv.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// readUntil scans SSE lines until one contains want.
func readUntil(t *testing.T, scanner *bufio.Scanner, want string) {
	t.Helper()
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), want) {
			return
		}
	}
	t.Fatalf("stream ended before %q: %v", want, scanner.Err())
}

func TestViewUpdates(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	res := fixture.CreateResource(t, "prices", true)
	rv := fixture.CreateView(t, res, "recline_grid", nil)

	router := chi.NewRouter()
	router.Get("/views/{id}/updates", h.ViewUpdates)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/views/"+rv.ID+"/updates", nil)
	require.NoError(t, err)

	responses := make(chan *http.Response, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			close(responses)
			return
		}
		responses <- resp
	}()

	require.Eventually(t, func() bool { return fixture.Notifier.Len() == 2 },
		2*time.Second, 10*time.Millisecond, "stream subscribes to the view and the theme")

	fixture.Notifier.Publish(rv.ID)

	resp, ok := <-responses
	require.True(t, ok, "request failed")
	defer func() { _ = resp.Body.Close() }()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	scanner := bufio.NewScanner(resp.Body)
	readUntil(t, scanner, `id="view-`+rv.ID+`"`)

	fixture.Notifier.Publish(notifier.ThemeTopic)
	readUntil(t, scanner, "window.location.reload()")
}
