package page

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

// TemplateName is the page that embeds a single object.
const TemplateName = "oneobj.html"

// ExtraJS entries are trusted code supplied by page functions.
var funcs = template.FuncMap{
	"rawjs": func(code string) template.JS { return template.JS(code) },
}

type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded page templates.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateRenderer{templates: t}, nil
}

func (r *TemplateRenderer) Render(w io.Writer, name string, data any) error {
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
