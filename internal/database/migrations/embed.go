// Package migrations embeds the SQL schema so the binary can migrate
// without the files on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
