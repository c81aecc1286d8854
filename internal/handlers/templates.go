package handlers

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templatesFS embed.FS

var scoreChoices = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// Templates parses the page templates. Page names are the file names.
func Templates() *template.Template {
	return template.Must(template.New("pages").Funcs(template.FuncMap{
		"join":   strings.Join,
		"scores": func() []int { return scoreChoices },
	}).ParseFS(templatesFS, "templates/*.html"))
}

type layout struct {
	Title          string
	RefreshSeconds int
}
