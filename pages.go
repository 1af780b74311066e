package secrets

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

func staticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page names
const (
	PageHome     = "home"
	PageLogin    = "login"
	PageRegister = "register"
	PageSecrets  = "secrets"
	PageSubmit   = "submit"
)

// PageData is what every page template is rendered with
type PageData struct {
	Identity  *Identity
	Providers []string
	Secrets   []string
}

// Pages holds one parsed template set per page, each sharing the layout
type Pages struct {
	templates map[string]*template.Template
}

func NewPages() *Pages {
	layout := template.Must(template.ParseFS(templatesFS, "templates/layout.html"))
	p := &Pages{templates: map[string]*template.Template{}}
	for _, name := range []string{PageHome, PageLogin, PageRegister, PageSecrets, PageSubmit} {
		t := template.Must(layout.Clone())
		p.templates[name] = template.Must(t.ParseFS(templatesFS, "templates/"+name+".html"))
	}
	return p
}

// Render executes the page into a buffer first so a template error never
// leaves a half written response
func (p *Pages) Render(w http.ResponseWriter, name string, data PageData) error {
	t, ok := p.templates[name]
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return nil
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
