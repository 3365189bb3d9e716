// Package web embeds the configuration editor page and its assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

// EditConfigPage returns the configuration editor HTML.
func EditConfigPage() ([]byte, error) {
	return templates.ReadFile("templates/edit_config.html")
}

// Static returns the asset tree served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
