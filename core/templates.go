package core

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// loadTemplates parses the embedded page templates.
func loadTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// pageData is handed to page.html.
type pageData struct {
	ViewModel
	Title     string
	CSRFToken string
}
