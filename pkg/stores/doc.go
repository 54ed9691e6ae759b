// Package stores provides the local run-history store: a SQLite database
// (WAL mode, embedded migrations) recording each reconcile run and its
// per-resource results. History is audit data only: reconciliation always
// cold-reads the controller and never consults local state.
package stores
