// Package storage provides the durable key/value layer behind the persisted
// session state and the auth token.
//
// Backends are chosen by URL scheme:
//
//   - memory://            process-local map, lost on exit
//   - sqlite://path/to.db  single-file database (default)
//   - postgres://...       shared database via lib/pq
//   - redis://...          shared redis instance
//
// The SQL backends share one table and a set of named queries embedded from
// queries/*.sql.
package storage
