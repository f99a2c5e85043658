// Package render provides HTML template rendering with lazy loading and
// reload support. Templates are loaded from an fs.FS and cached until
// explicitly reloaded.
//
// Usage:
//
//	//go:embed templates
//	var templatesFS embed.FS
//
//	sub, _ := fs.Sub(templatesFS, "templates")
//	r := render.New(sub, ".html")
//
//	r.Funcs(template.FuncMap{
//		"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
//	})
//
//	http.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
//		r.HTML(w, http.StatusOK, "checkout", render.Vals{
//			"Total": 25.0,
//		})
//	})
package render

import (
	"bytes"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"
	"sync/atomic"
)

// Renderer executes named templates. Templates are named by their path
// relative to the filesystem root with the extension removed, so
// "pages/index.html" is "pages/index".
type Renderer struct {
	dir       fs.FS
	ext       string
	templates *template.Template
	loaded    atomic.Bool
	mu        sync.Mutex
	funcs     template.FuncMap
}

// New creates a Renderer for the files in dir ending in ext (e.g. ".html").
func New(dir fs.FS, ext string) *Renderer {
	return &Renderer{
		dir:       dir,
		ext:       ext,
		templates: template.New(""),
		funcs:     template.FuncMap{},
	}
}

// Vals is a convenience type for passing data to templates.
type Vals map[string]any

var buffers = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

// Funcs registers template functions available in all templates. It must
// be called before the first render or followed by Reload.
func (r *Renderer) Funcs(funcs template.FuncMap) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for n, f := range funcs {
		r.funcs[n] = f
	}
}

// HTML renders the named template and writes it with the given status and
// a text/html content type. Nothing is written when rendering fails, so
// the caller can still send an error response.
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, vals Vals) error {
	buf := buffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer buffers.Put(buf)

	if err := r.Render(buf, name, vals); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// Render executes the named template into w. Templates are loaded on first
// use.
func (r *Renderer) Render(w io.Writer, name string, vals Vals) error {
	if !r.loaded.Load() {
		if err := r.load(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	t := r.templates
	r.mu.Unlock()

	return t.ExecuteTemplate(w, name, vals)
}

// Reload drops the parsed templates; they are parsed again on the next
// render.
func (r *Renderer) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates = template.New("")
	r.loaded.Store(false)
}

func (r *Renderer) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded.Load() {
		return nil
	}

	r.templates.Funcs(r.funcs)

	err := fs.WalkDir(r.dir, ".", func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if e.IsDir() || path.Ext(p) != r.ext {
			return nil
		}

		buf, err := fs.ReadFile(r.dir, p)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(p, r.ext)
		_, err = r.templates.New(name).Parse(string(buf))
		return err
	})

	if err != nil {
		return err
	}

	r.loaded.Store(true)
	return nil
}
