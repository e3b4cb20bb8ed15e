// Package render turns view template variables into HTML using the template
// directories registered with the asset pipeline.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// TemplateSource provides the template search path.
// *resources.Pipeline implements it.
type TemplateSource interface {
	Root() fs.FS
	TemplateDirs() []string
}

// Renderer executes named templates. Templates are looked up by file name;
// when two directories contain the same name the earlier registered
// directory wins.
type Renderer struct {
	mu     sync.RWMutex
	source TemplateSource
	tmpl   *template.Template
	logger *slog.Logger
}

// NewRenderer parses every template in source.
func NewRenderer(source TemplateSource, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Renderer{source: source, logger: logger}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
	}
}

// Reload re-parses all templates. On failure the previous set stays active.
func (r *Renderer) Reload() error {
	root := r.source.Root()
	dirs := r.source.TemplateDirs()

	set := template.New("").Funcs(funcs())
	count := 0
	for i := len(dirs) - 1; i >= 0; i-- {
		matches, err := fs.Glob(root, path.Join(dirs[i], "*.html"))
		if err != nil {
			return fmt.Errorf("failed to list templates in %s: %w", dirs[i], err)
		}
		for _, file := range matches {
			src, err := fs.ReadFile(root, file)
			if err != nil {
				return fmt.Errorf("failed to read template %s: %w", file, err)
			}
			if _, err := set.New(path.Base(file)).Parse(string(src)); err != nil {
				return fmt.Errorf("failed to parse template %s: %w", file, err)
			}
			count++
		}
	}

	r.mu.Lock()
	r.tmpl = set
	r.mu.Unlock()

	r.logger.Debug("loaded templates", slog.Int("count", count), slog.Int("dirs", len(dirs)))
	return nil
}

// Has reports whether a template called name is loaded.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tmpl.Lookup(name) != nil
}

// Render executes the named template into w.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	r.mu.RLock()
	t := r.tmpl.Lookup(name)
	r.mu.RUnlock()
	if t == nil {
		return fmt.Errorf("template %s not found", name)
	}
	return t.Execute(w, data)
}

// RenderString executes the named template and returns the output.
func (r *Renderer) RenderString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderView renders the view template of c for res and data.
func (r *Renderer) RenderView(c view.Capability, res view.Resource, data view.ViewData) (string, error) {
	vars, err := c.TemplateVariables(res, data)
	if err != nil {
		return "", err
	}
	return r.RenderString(c.TemplateName(), map[string]any(vars))
}

// FormData is the input of a view's configuration form template.
type FormData struct {
	Action string
	Values map[string]any
	Errors view.ValidationErrors
}

// RenderForm renders the configuration form of c.
func (r *Renderer) RenderForm(c view.Capability, form FormData) (string, error) {
	values := make(map[string]string, len(form.Values))
	for _, name := range c.Info().Schema.Names() {
		values[name] = ""
	}
	for k, v := range form.Values {
		if v != nil {
			values[k] = fmt.Sprint(v)
		}
	}

	errs := form.Errors
	if errs == nil {
		errs = view.ValidationErrors{}
	}

	data := map[string]any{
		"action": form.Action,
		"values": values,
		"errors": errs,
	}
	if c.Variant() == view.Graph {
		data[view.VarGraphTypes] = view.GraphTypes()
	}
	return r.RenderString(c.FormTemplateName(), data)
}
