// Package migrations embeds the SQL schema files so the server binary can
// apply them at startup without a separate tool.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
