// Package views embeds the HTML templates and static assets and builds the
// fiber template engine that renders them.
package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
)

// Layout wraps every full page.
const Layout = "layouts/base"

//go:embed templates
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// NewEngine returns an html engine over the embedded templates. Template names
// are file paths relative to templates/ without the extension, e.g.
// "users/show".
func NewEngine() *html.Engine {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(Funcs())
	return engine
}

// StaticFS serves the embedded static/ directory.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"has": func(set map[uint]bool, id uint) bool {
			return set[id]
		},
		"date": func(t time.Time) string {
			return t.Format("02 January 2006")
		},
		"dict": func(pairs ...any) map[string]any {
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i+1 < len(pairs); i += 2 {
				key, _ := pairs[i].(string)
				m[key] = pairs[i+1]
			}
			return m
		},
	}
}
