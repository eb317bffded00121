// Package web embeds the page templates and static assets for single-binary
// distribution.
package web

import (
	"embed"
	"io/fs"
)

// Templates holds templates/*.html: layout.html plus one file per page.
//
//go:embed templates/*.html
var Templates embed.FS

//go:embed static
var static embed.FS

// Static returns the contents of static/ rooted at the directory itself.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
