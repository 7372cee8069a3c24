// Package app provides the orchestration layer for stockroom.
//
// # Overview
//
// This package wires configuration, durable storage, the state store, the
// storefront client, the repositories and the sync scheduler. It is the
// composition root shared by every CLI command.
//
// # Architecture
//
// New follows a fixed initialization order:
//
//  1. Open the log file and build a slog text handler at the configured level
//  2. Open durable storage from the configured URL
//  3. Create the event bus and the state store, then hydrate persisted state
//  4. Restore the auth token and build the request client
//  5. Build the repositories and the sync scheduler over them
//
// Hydration happens before anything else can write to the store, so a write
// made during startup is never overwritten by stale persisted values.
//
// # Components
//
//   - app.go: Options, Open, New and Close
//   - session.go: Login, Logout, stock adjustments and the dashboard
//
// # Data Flow
//
//	┌──────────────┐
//	│   New()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> storage.Open()      sqlite, postgres, redis or memory
//	       ├─────> state.NewStore()    Hydrate from "app-state"
//	       ├─────> shop.NewClient()    Token from "auth-token"
//	       ├─────> repo.New()          Auth, Products, Orders, Inventory
//	       └─────> autosync.New()      Staleness-driven refresh
//
//	Dashboard():
//	┌─────────────────────────────────────────┐
//	│ Sync.Start() ticker goroutine           │
//	│  ├─> Lister.List() per stale domain     │
//	│  └─> store.Set*()  ──> bus ──> ui       │
//	│ ui.Run()  (blocks)                      │
//	└─────────────────────────────────────────┘
//
// # Error Handling
//
// Fatal errors are returned from Open and New: an invalid config, an
// unreachable storage backend or an unusable API base URL. Sync failures are
// logged and published on the bus; the scheduler keeps ticking.
//
// # Usage Example
//
//	a, err := app.Open(ctx, app.Options{})
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//
//	if _, err := a.Login(ctx, email, password); err != nil {
//		return err
//	}
//	return a.Dashboard(ctx, "")
package app
