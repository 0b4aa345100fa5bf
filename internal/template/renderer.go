package template

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/ghaggin/estate/internal/model"
	"github.com/ghaggin/estate/web"
)

const (
	templateDir string = "tmpl"
	baseFile    string = "base.html"

	PageIndex = "index.html"
	PageLogin = "admin_login.html"
	PageAdmin = "admin.html"
	PageError = "error.html"
)

var pages = []string{PageIndex, PageLogin, PageAdmin, PageError}

type Data struct {
	PageTitle string
	Flashes   []model.Flash
	// Authenticated toggles the admin navigation.
	Authenticated bool
	Username      string
	Fresh         bool
	Next          string
	Images        []model.Image
	Leads         []model.Lead
}

// Renderer holds the pages parsed once at startup.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	return newRenderer(web.Templates)
}

func newRenderer(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.ParseFS(fsys,
			templateDir+"/"+page,
			templateDir+"/"+baseFile,
		)
		if err != nil {
			return nil, fmt.Errorf("template: parse %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render executes into a buffer first so a template error never leaves a
// half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, tmpl string, td *Data) error {
	t, ok := r.pages[tmpl]
	if !ok {
		return fmt.Errorf("template: unknown page %s", tmpl)
	}

	buf := &bytes.Buffer{}

	err := t.Execute(buf, td)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
