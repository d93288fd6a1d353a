package postgres

import _ "embed"

// Schema is the plain-SQL schema for the service. Applied by tests and by
// deploy scripts; there is no migration tooling here.
//
//go:embed schema.sql
var Schema string
