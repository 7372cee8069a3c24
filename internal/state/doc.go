// Package state owns the application state shared by the dashboard, the CLI
// and the sync scheduler.
//
// # Model
//
// State is a typed record with a closed set of keys (see Keys). Store.Set is
// the only mutation path and always replaces a whole key; there is no deep
// merge. Every Set notifies direct listeners and, when a bus is wired,
// publishes a Change on events.StateChanged and on the per-key channel
// events.StateKey(key).
//
// # Copies
//
// Get, Snapshot and the typed helpers return copies. Set copies the value it
// is given. A snapshot taken before a Set never observes that Set.
//
// # Persistence
//
// The session keys (user, cart, isAdmin, lastSync) are written as JSON to
// storage key "app-state" on every change to one of them. Cached collections
// are never written. Hydrate reads the document once at startup and overlays
// whatever keys it finds. Storage failures are logged, never returned:
// in-memory state is authoritative.
//
// # Concurrency
//
// Store is safe for concurrent use. Listeners run on the goroutine that
// called Set, after the store lock is released, so a listener may call Set
// again (even on the same key); the nested Set completes, notifications
// included, before the outer notification loop resumes. Between Sets issued
// from different goroutines the last write wins.
package state
