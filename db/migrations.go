// Package db embeds the SQL migrations so the binary can migrate without a checkout.
package db

import "embed"

//go:embed pg/*.sql
var files embed.FS

// Postgres holds the NNN_name.{up,down}.sql files under the "pg" directory.
var Postgres = files
