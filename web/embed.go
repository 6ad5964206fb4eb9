// Package web provides the embedded frontend assets for the SOF extraction UI.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var assets embed.FS

var static fs.FS

func init() {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic("web: embedded assets missing: " + err.Error())
	}
	static = sub
}

// StaticFS returns the embedded frontend assets as a filesystem. The returned
// FS has "static" as the root, so files are accessed directly (e.g.,
// "index.html" not "static/index.html").
func StaticFS() fs.FS {
	return static
}
