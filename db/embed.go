// Package db embeds the database schema.
package db

import _ "embed"

// Schema holds idempotent DDL for every application table.
//
//go:embed migrations/001_schema.sql
var Schema string
