// Package database provides the SQL implementations of the store interfaces
// together with connection setup, driver error mapping and embedded schema
// migrations. PostgreSQL (via pgx) is the production backend; SQLite (via
// modernc.org/sqlite) serves local development and tests.
package database
