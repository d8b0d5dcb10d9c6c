// Package testdb provides PostgreSQL helpers for integration tests.
//
// Tests using it are skipped unless TASKS_TEST_DATABASE_URL (or
// DATABASE_URL) points at a disposable database. The schema is migrated on
// first use and every test runs inside a transaction that is rolled back.
package testdb
