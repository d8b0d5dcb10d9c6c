// Package store defines the persistence contract used by the service layer.
// These interfaces keep business rules independent of the database that
// ultimately holds the records.
package store
