// Package migrations embeds the versioned SQL schema applied by cmd/migrate
// and, optionally, at server start.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
