// Package root exposes repository-level embedded assets.
package root

import "embed"

// Migrations contains the goose SQL migrations applied by the migrate
// command.
//
//go:embed migrations/*.sql
var Migrations embed.FS
