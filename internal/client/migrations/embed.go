// Package migrations embeds the SQL schema migrations for the desk client's
// local sqlite database. They are applied with goose on store open.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
