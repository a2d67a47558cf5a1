// Package templates holds the server-rendered pages.
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

// Load parses every embedded page. Page templates are addressed by file name.
func Load() (*template.Template, error) {
	return template.New("").ParseFS(files, "*.html")
}
