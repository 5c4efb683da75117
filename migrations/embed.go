// Package migrations carries the bootstrap schema applied by the database pool.
package migrations

import _ "embed"

// Init creates the leads, content and keyword_cache tables if missing.
//
//go:embed 0001_init.up.sql
var Init string
