// Package view holds the server-rendered pages.
package view

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

const (
	LoginPage   = "login.html"
	IndexPage   = "index.html"
	MessagePage = "message.html"
)

// Templates parses the embedded pages. Each page is addressed by its file
// name.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(files, "templates/*.html"))
}
