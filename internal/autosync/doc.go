// Package autosync keeps the cached product, order and inventory
// collections fresh.
//
// A Scheduler wakes every period (5m by default) and, while a user is logged
// in, refreshes each domain whose last successful refresh is older than its
// threshold: products 10m, orders 2m, inventory 5m. Inventory is only
// refreshed for admins. Due domains are fetched concurrently and a failing
// domain is logged without affecting the others. When at least one domain
// succeeds the store's lastSync is stamped and sync:success is published; a
// panic during a tick publishes sync:failed instead.
package autosync
