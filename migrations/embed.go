// Package migrations embeds the SQL schema for the self-hosted backend.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
