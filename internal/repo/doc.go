// Package repo holds thin typed wrappers over the storefront API: auth,
// products, orders and inventory.
//
// Reads go through the client's retry policy; writes are sent once.
// Permission (401/403) and not-found (404) failures are translated into
// *DomainError values that carry a user-facing message and still unwrap to
// the underlying *shop.Error.
//
// Inventory.AdjustStock is a client-side read-modify-write: it fetches the
// record, adds the delta, refuses to go below zero, and writes the absolute
// quantity. There is no version check between the read and the write.
package repo
