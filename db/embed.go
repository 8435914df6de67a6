// Package db embeds the database schema and seed fixtures.
package db

import _ "embed"

// Schema is the DDL applied on startup. Statements are idempotent so the
// schema can be re-applied on every boot.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedProducts is the catalog fixture consumed by cmd/seed-db.
//
//go:embed seed/products.json
var SeedProducts []byte
