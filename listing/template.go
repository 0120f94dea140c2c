// Package listing renders directory listings from an html/template.
package listing

import (
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"sync/atomic"

	"github.com/mordilloSan/staticserver/serving"
)

// ErrNoTemplate is returned when rendering without a compiled template.
var ErrNoTemplate = errors.New("listing template unavailable")

//go:embed index.html
var defaultTemplate string

// Page is the data a listing template is executed with.
type Page struct {
	Title string
	Files []serving.DirectoryEntry
}

// Renderer holds the compiled listing template. It is safe for concurrent use;
// Reload swaps the template atomically.
type Renderer struct {
	path string
	tmpl atomic.Pointer[template.Template]
}

// Load compiles the template at path, or the embedded default when path is empty.
func Load(path string) (*Renderer, error) {
	r := &Renderer{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the template file path, empty for the embedded template.
func (r *Renderer) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Reload recompiles the template. On failure the previous template stays active.
func (r *Renderer) Reload() error {
	src := defaultTemplate
	if r.path != "" {
		b, err := os.ReadFile(r.path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", r.path, err)
		}
		src = string(b)
	}

	tmpl, err := template.New("listing").Parse(src)
	if err != nil {
		return fmt.Errorf("compile template: %w", err)
	}
	r.tmpl.Store(tmpl)
	return nil
}

// Render executes the template for page. A nil Renderer fails with ErrNoTemplate.
func (r *Renderer) Render(w io.Writer, page Page) error {
	if r == nil {
		return ErrNoTemplate
	}
	tmpl := r.tmpl.Load()
	if tmpl == nil {
		return ErrNoTemplate
	}
	return tmpl.Execute(w, page)
}
