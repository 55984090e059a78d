// Package postgres implements the internal/store interfaces on PostgreSQL
// through database/sql and the pgx stdlib driver. It also owns the embedded
// goose migrations that define the schema.
package postgres
