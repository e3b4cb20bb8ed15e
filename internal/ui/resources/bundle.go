package resources

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
)

// Bundle is the concatenated, transformed output of a resource directory.
type Bundle struct {
	Name    string
	JS      string
	CSS     string
	Files   []string
	BuiltAt time.Time
}

// UnknownBundleError is returned when a bundle name was never declared.
type UnknownBundleError struct {
	Name string
}

func (e *UnknownBundleError) Error() string {
	return fmt.Sprintf("unknown bundle %q", e.Name)
}

// Bundle builds the named bundle or returns the cached build.
// Scripts and stylesheets are transformed one file at a time in lexical
// order and concatenated. A build that overlaps an Invalidate is returned
// but not cached.
func (p *Pipeline) Bundle(name string) (*Bundle, error) {
	p.mu.RLock()
	if b, ok := p.built[name]; ok {
		p.mu.RUnlock()
		return b, nil
	}
	dir, ok := p.bundles[name]
	gen := p.generation
	p.mu.RUnlock()
	if !ok {
		return nil, &UnknownBundleError{Name: name}
	}

	b, err := p.build(name, dir)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.generation == gen {
		p.built[name] = b
	} else {
		p.logger.Debug("discarded stale bundle", slog.String("name", name))
	}
	p.mu.Unlock()
	return b, nil
}

// Invalidate drops every cached bundle so the next request rebuilds it.
func (p *Pipeline) Invalidate() {
	p.mu.Lock()
	p.built = make(map[string]*Bundle)
	p.generation++
	p.mu.Unlock()
	p.logger.Debug("invalidated bundles")
}

func (p *Pipeline) build(name, dir string) (*Bundle, error) {
	entries, err := fs.ReadDir(p.root, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle %s: %w", name, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch path.Ext(e.Name()) {
		case ".js", ".css":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	var js, css bytes.Buffer
	for _, file := range files {
		src, err := fs.ReadFile(p.root, path.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}

		loader := api.LoaderJS
		out := &js
		if path.Ext(file) == ".css" {
			loader = api.LoaderCSS
			out = &css
		}

		code, err := p.transform(file, string(src), loader)
		if err != nil {
			return nil, err
		}
		if !p.minify {
			fmt.Fprintf(out, "/* %s */\n", file)
		}
		out.WriteString(code)
		if !strings.HasSuffix(code, "\n") {
			out.WriteByte('\n')
		}
	}

	p.logger.Debug("built bundle",
		slog.String("name", name),
		slog.Int("files", len(files)),
		slog.Bool("minify", p.minify))

	return &Bundle{
		Name:    name,
		JS:      js.String(),
		CSS:     css.String(),
		Files:   files,
		BuiltAt: time.Now(),
	}, nil
}

func (p *Pipeline) transform(file, src string, loader api.Loader) (string, error) {
	opts := api.TransformOptions{
		Loader:     loader,
		Sourcefile: file,
		Target:     api.ES2020,
		LogLevel:   api.LogLevelSilent,
	}
	if p.minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}

	result := api.Transform(src, opts)
	if len(result.Errors) > 0 {
		var msg strings.Builder
		for _, e := range result.Errors {
			if e.Location != nil {
				fmt.Fprintf(&msg, "%s:%d:%d: %s\n", e.Location.File, e.Location.Line, e.Location.Column, e.Text)
			} else {
				fmt.Fprintf(&msg, "%s: %s\n", file, e.Text)
			}
		}
		return "", fmt.Errorf("esbuild errors:\n%s", msg.String())
	}
	return string(result.Code), nil
}

// BundleHandler serves bundles as BundlePrefix + "{name}.js" and
// BundlePrefix + "{name}.css".
func (p *Pipeline) BundleHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file := strings.TrimPrefix(r.URL.Path, BundlePrefix)
		ext := path.Ext(file)
		name := strings.TrimSuffix(file, ext)

		var contentType string
		switch ext {
		case ".js":
			contentType = "text/javascript; charset=utf-8"
		case ".css":
			contentType = "text/css; charset=utf-8"
		default:
			http.NotFound(w, r)
			return
		}

		b, err := p.Bundle(name)
		if err != nil {
			var unknown *UnknownBundleError
			if errors.As(err, &unknown) {
				http.NotFound(w, r)
				return
			}
			p.logger.Error("bundle build failed", slog.String("name", name), slog.String("error", err.Error()))
			http.Error(w, "bundle build failed", http.StatusInternalServerError)
			return
		}

		body := b.JS
		if ext == ".css" {
			body = b.CSS
		}

		w.Header().Set("Content-Type", contentType)
		if p.cacheControl != "" {
			w.Header().Set("Cache-Control", p.cacheControl)
		}
		http.ServeContent(w, r, file, b.BuiltAt, strings.NewReader(body))
	})
}
