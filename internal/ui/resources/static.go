package resources

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// publicFS resolves a name against each public directory in registration
// order and returns the first match.
type publicFS struct {
	root fs.FS
	dirs []string
}

func (u publicFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	for _, dir := range u.dirs {
		f, err := u.root.Open(path.Join(dir, name))
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// PublicFS returns a filesystem over all public directories.
func (p *Pipeline) PublicFS() fs.FS {
	return publicFS{root: p.root, dirs: p.PublicDirs()}
}

// Handler returns an HTTP handler serving public files under StaticPrefix.
// Directory listings are not served.
func (p *Pipeline) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, StaticPrefix)
		if name == "" || strings.HasSuffix(name, "/") {
			http.NotFound(w, r)
			return
		}

		fsys := p.PublicFS()
		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		if p.cacheControl != "" {
			w.Header().Set("Cache-Control", p.cacheControl)
		}
		http.StripPrefix(StaticPrefix, http.FileServer(http.FS(fsys))).ServeHTTP(w, r)
	})
}
