// Package migrations embeds the SQL schema migrations for the server
// database. They are applied with goose at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
