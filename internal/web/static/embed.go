// Package static holds the stylesheet and images served under /static/.
package static

import "embed"

//go:embed css img
var FS embed.FS
