package web

import (
	_ "embed"
	"html/template"

	"resume-analyzer-web/internal/render"
	"resume-analyzer-web/internal/upload"
)

//go:embed templates/index.html.tmpl
var indexTemplate string

var pageTemplate = template.Must(template.New("index").Parse(indexTemplate))

// pageData feeds templates/index.html.tmpl.
type pageData struct {
	State      upload.State
	Phase      upload.Phase
	CanAnalyze bool
	Result     *render.View
	Background string
	CloudKey   string
}
