// Package web embeds the page templates and static assets.
package web

import "embed"

//go:embed tmpl/*.html
var Templates embed.FS

//go:embed static
var Static embed.FS
