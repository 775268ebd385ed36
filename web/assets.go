package webassets

import "embed"

// Files holds the embedded status page so the serve command ships as a
// single binary.
//
//go:embed *.html
var Files embed.FS
