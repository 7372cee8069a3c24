// Package mockshop is an in-memory storefront API.
//
// It serves the same routes as the production backend, issues signed bearer
// tokens on login, enforces the admin role on catalog writes, order status
// changes and inventory, and lets tests queue failure statuses or add latency
// per route while counting the requests that arrive.
package mockshop
