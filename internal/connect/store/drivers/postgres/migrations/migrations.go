package migrations

import "embed"

// Migrations holds the goose files compiled into the binary.
//
//go:embed *.sql
var Migrations embed.FS
