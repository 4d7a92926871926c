// Package database holds the SQL migrations, embedded so binaries carry
// their schema.
package database

import "embed"

// Migrations contains one directory of golang-migrate files per dialect.
//
//go:embed migrations
var Migrations embed.FS
