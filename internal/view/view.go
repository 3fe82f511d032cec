// Package view renders the pages a form submission ends on.
//
// Templates are parsed from the files embedded in the binary, or from a
// directory given in the configuration. Each view is parsed together with the
// shared layout and is looked up by the name a handler selects.
package view

import (
	"embed"
	"io/fs"

	"github.com/deppfellow/contactform/internal/model"
)

//go:embed templates/*.html
var embedded embed.FS

// DefaultLang is the page language when the data carries none.
const DefaultLang = "en"

// Page is what templates are executed with. Context holds the keys a
// handler selected; Lang and FormURL describe the page around them.
type Page struct {
	Lang    string
	FormURL string
	Context model.RenderContext
}

// LayoutFile is the template every view is parsed together with.
const LayoutFile = "layout.html"

// Views lists the views the renderer must provide.
var Views = []model.View{model.ViewError, model.ViewResult}

func embeddedTemplates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		// The pattern above guarantees the directory.
		panic(err)
	}

	return sub
}

func fileName(v model.View) string {
	return string(v) + ".html"
}
