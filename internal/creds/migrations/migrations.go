// Package migrations embeds the SQL migrations for the Postgres credential
// repository, applied with goose at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
