// Package resources implements the host asset pipeline: public directories,
// template directories and named front-end bundles resolved against a theme
// filesystem.
package resources

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sync"

	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// StaticPrefix is the URL prefix public files are served under.
const StaticPrefix = "/static/"

// BundlePrefix is the URL prefix bundles are served under.
const BundlePrefix = "/bundles/"

// Pipeline collects the directories and bundles plugins register.
// It implements view.AssetPipeline.
type Pipeline struct {
	mu           sync.RWMutex
	root         fs.FS
	publicDirs   []string
	templateDirs []string
	bundles      map[string]string
	built        map[string]*Bundle
	generation   uint64
	minify       bool
	cacheControl string
	logger       *slog.Logger
}

var _ view.AssetPipeline = (*Pipeline)(nil)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMinify enables minified bundles.
func WithMinify(minify bool) Option {
	return func(p *Pipeline) {
		p.minify = minify
	}
}

// WithCacheControl sets the Cache-Control header sent with static files
// and bundles. Empty disables the header.
func WithCacheControl(value string) Option {
	return func(p *Pipeline) {
		p.cacheControl = value
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a pipeline resolving directories against root.
func NewPipeline(root fs.FS, opts ...Option) *Pipeline {
	p := &Pipeline{
		root:    root,
		bundles: make(map[string]string),
		built:   make(map[string]*Bundle),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Root returns the filesystem directories are resolved against.
func (p *Pipeline) Root() fs.FS {
	return p.root
}

// AddPublicDirectory exposes dir under StaticPrefix.
func (p *Pipeline) AddPublicDirectory(dir string) error {
	dir, err := p.checkDir(dir)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.publicDirs = appendUnique(p.publicDirs, dir)
	p.logger.Debug("added public directory", slog.String("dir", dir))
	return nil
}

// AddTemplateDirectory adds dir to the template search path.
func (p *Pipeline) AddTemplateDirectory(dir string) error {
	dir, err := p.checkDir(dir)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.templateDirs = appendUnique(p.templateDirs, dir)
	p.logger.Debug("added template directory", slog.String("dir", dir))
	return nil
}

// AddResource declares a bundle called name built from the scripts and
// styles in dir. Declaring the same name for another directory fails.
func (p *Pipeline) AddResource(dir, name string) error {
	if name == "" {
		return errors.New("bundle name is required")
	}
	dir, err := p.checkDir(dir)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.bundles[name]; ok && existing != dir {
		return fmt.Errorf("bundle %q already declared for %s", name, existing)
	}
	p.bundles[name] = dir
	p.logger.Debug("added resource bundle", slog.String("name", name), slog.String("dir", dir))
	return nil
}

// PublicDirs returns the public directories in registration order.
func (p *Pipeline) PublicDirs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.publicDirs...)
}

// TemplateDirs returns the template directories in registration order.
func (p *Pipeline) TemplateDirs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.templateDirs...)
}

// BundleDir returns the directory a bundle is built from.
func (p *Pipeline) BundleDir(name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	dir, ok := p.bundles[name]
	return dir, ok
}

// StaticPath returns the URL path for a public file.
func StaticPath(name string) string {
	return StaticPrefix + name
}

// BundlePath returns the URL path of a bundle's script (ext "js") or
// stylesheet (ext "css").
func BundlePath(name, ext string) string {
	return BundlePrefix + name + "." + ext
}

func (p *Pipeline) checkDir(dir string) (string, error) {
	clean := path.Clean(dir)
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("invalid asset directory %q", dir)
	}
	info, err := fs.Stat(p.root, clean)
	if err != nil {
		return "", fmt.Errorf("asset directory %s: %w", clean, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("asset path %s is not a directory", clean)
	}
	return clean, nil
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
