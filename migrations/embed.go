// Package migrations holds the PostgreSQL schema for persisted documents.
// Files follow the golang-migrate naming scheme and are embedded so the
// server can apply them without a checkout.
package migrations

import "embed"

// FS contains every *.up.sql and *.down.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
