// Package templates содержит HTML-шаблоны панели, встроенные в бинарник.
package templates

import "embed"

//go:embed login.html admin/base_admin.html admin/parts/*.html admin/pages/*.html
var FS embed.FS
