// Package reclinepreview ships the Recline preview theme: the public
// scripts and styles of the widget and the HTML templates hosts render.
package reclinepreview

import "embed"

// Theme holds theme/public and theme/templates, rooted so that the
// directories registered by view.RegisterAssets resolve against it.
//
//go:embed theme/public theme/templates
var Theme embed.FS
