package resources

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/reclinepreview"
	"github.com/leapstack-labs/reclinepreview/internal/testutil"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"a/public/app.js":        {Data: []byte("var answer = 40 + 2;\n")},
		"a/public/b.css":         {Data: []byte(".x { color: red; }\n")},
		"a/public/nested/img.js": {Data: []byte("ignored()")},
		"a/templates/page.html":  {Data: []byte("<p>{{.}}</p>")},
		"b/public/app.js":        {Data: []byte("shadowed()")},
		"b/public/only-b.txt":    {Data: []byte("b")},
		"broken/bad.js":          {Data: []byte("function (")},
		"file.txt":               {Data: []byte("not a dir")},
	}
}

func TestPipeline_AddDirectories(t *testing.T) {
	p := NewPipeline(testFS(), WithLogger(testutil.NewTestLogger(t)))

	require.NoError(t, p.AddPublicDirectory("a/public"))
	require.NoError(t, p.AddPublicDirectory("a/public/"), "re-adding is a no-op")
	require.NoError(t, p.AddPublicDirectory("b/public"))
	require.NoError(t, p.AddTemplateDirectory("a/templates"))

	assert.Equal(t, []string{"a/public", "b/public"}, p.PublicDirs())
	assert.Equal(t, []string{"a/templates"}, p.TemplateDirs())
}

func TestPipeline_AddDirectoryErrors(t *testing.T) {
	p := NewPipeline(testFS())

	tests := []struct {
		name string
		fn   func() error
	}{
		{"missing public", func() error { return p.AddPublicDirectory("nope") }},
		{"missing templates", func() error { return p.AddTemplateDirectory("nope") }},
		{"file not dir", func() error { return p.AddPublicDirectory("file.txt") }},
		{"escapes root", func() error { return p.AddTemplateDirectory("../a") }},
		{"empty bundle name", func() error { return p.AddResource("a/public", "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.fn())
		})
	}
	assert.Empty(t, p.PublicDirs())
}

func TestPipeline_AddResourceConflict(t *testing.T) {
	p := NewPipeline(testFS())

	require.NoError(t, p.AddResource("a/public", "app"))
	require.NoError(t, p.AddResource("a/public", "app"), "same directory is idempotent")

	err := p.AddResource("b/public", "app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already declared")

	dir, ok := p.BundleDir("app")
	assert.True(t, ok)
	assert.Equal(t, "a/public", dir)
}

func TestPipeline_PublicFSOrder(t *testing.T) {
	p := NewPipeline(testFS())
	require.NoError(t, p.AddPublicDirectory("a/public"))
	require.NoError(t, p.AddPublicDirectory("b/public"))

	b, err := fs.ReadFile(p.PublicFS(), "app.js")
	require.NoError(t, err)
	assert.Contains(t, string(b), "answer", "first directory wins")

	b, err = fs.ReadFile(p.PublicFS(), "only-b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b", string(b))

	_, err = p.PublicFS().Open("missing.js")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestPipeline_Handler(t *testing.T) {
	p := NewPipeline(testFS(), WithCacheControl("public, max-age=60"))
	require.NoError(t, p.AddPublicDirectory("a/public"))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/static/app.js", http.StatusOK, "answer"},
		{"/static/nested/img.js", http.StatusOK, "ignored"},
		{"/static/missing.js", http.StatusNotFound, ""},
		{"/static/nested/", http.StatusNotFound, ""},
		{"/static/", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
				assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestPipeline_Bundle(t *testing.T) {
	p := NewPipeline(testFS())
	require.NoError(t, p.AddResource("a/public", "app"))

	b, err := p.Bundle("app")
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js", "b.css"}, b.Files, "subdirectories are not bundled")
	assert.Contains(t, b.JS, "answer")
	assert.Contains(t, b.JS, "/* app.js */")
	assert.Contains(t, b.CSS, "color: red")

	again, err := p.Bundle("app")
	require.NoError(t, err)
	assert.Same(t, b, again, "bundles are cached")

	p.Invalidate()
	rebuilt, err := p.Bundle("app")
	require.NoError(t, err)
	assert.NotSame(t, b, rebuilt)
}

// editingFS runs afterRead once, after the first file read returns.
type editingFS struct {
	fstest.MapFS
	afterRead func()
}

func (f *editingFS) ReadFile(name string) ([]byte, error) {
	data, err := f.MapFS.ReadFile(name)
	if hook := f.afterRead; hook != nil {
		f.afterRead = nil
		hook()
	}
	return data, err
}

func TestPipeline_BundleInvalidatedDuringBuild(t *testing.T) {
	fsys := &editingFS{MapFS: testFS()}
	p := NewPipeline(fsys)
	require.NoError(t, p.AddResource("a/public", "app"))

	fsys.afterRead = func() {
		fsys.MapFS["a/public/app.js"] = &fstest.MapFile{Data: []byte("var answer = 43;\n")}
		p.Invalidate()
	}

	stale, err := p.Bundle("app")
	require.NoError(t, err)
	assert.NotContains(t, stale.JS, "43")

	fresh, err := p.Bundle("app")
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh, "a build that overlapped Invalidate is not cached")
	assert.Contains(t, fresh.JS, "43")

	again, err := p.Bundle("app")
	require.NoError(t, err)
	assert.Same(t, fresh, again)
}

func TestPipeline_BundleMinified(t *testing.T) {
	p := NewPipeline(testFS(), WithMinify(true))
	require.NoError(t, p.AddResource("a/public", "app"))

	b, err := p.Bundle("app")
	require.NoError(t, err)
	assert.NotContains(t, b.JS, "/* app.js */")
	assert.NotEmpty(t, b.JS)
	assert.NotContains(t, b.CSS, "\n  ")
}

func TestPipeline_BundleErrors(t *testing.T) {
	p := NewPipeline(testFS())
	require.NoError(t, p.AddResource("broken", "broken"))

	_, err := p.Bundle("missing")
	var unknown *UnknownBundleError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "missing", unknown.Name)

	_, err = p.Bundle("broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "esbuild errors")
}

func TestPipeline_BundleHandler(t *testing.T) {
	p := NewPipeline(testFS())
	require.NoError(t, p.AddResource("a/public", "app"))
	require.NoError(t, p.AddResource("broken", "broken"))

	tests := []struct {
		path        string
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{"/bundles/app.js", http.StatusOK, "text/javascript; charset=utf-8", "answer"},
		{"/bundles/app.css", http.StatusOK, "text/css; charset=utf-8", "red"},
		{"/bundles/app.map", http.StatusNotFound, "", ""},
		{"/bundles/other.js", http.StatusNotFound, "", ""},
		{"/bundles/broken.js", http.StatusInternalServerError, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			p.BundleHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
				body, _ := io.ReadAll(rec.Body)
				assert.Contains(t, string(body), tt.wantContain)
			}
		})
	}
}

func TestPipeline_InstallTheme(t *testing.T) {
	p := NewPipeline(reclinepreview.Theme)
	reg := view.NewRegistry(testutil.NewTestLogger(t))

	require.NoError(t, view.Install(reg, p))

	assert.Equal(t, []string{view.PublicDir}, p.PublicDirs())
	assert.Equal(t, []string{view.TemplateDir}, p.TemplateDirs())

	b, err := p.Bundle(view.BundleName)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"recline_graph.js",
		"recline_grid.js",
		"recline_map.js",
		"recline_view.css",
		"recline_view.js",
	}, b.Files)
	assert.Contains(t, b.JS, "ReclineRenderers")
	assert.NotEmpty(t, b.CSS)
}
