// Package store implements SQLite persistence for user playlist collections
// and the global video-metadata cache.
//
// Every operation opens its own connection, applies pending migrations and the
// template bootstrap (both no-ops after first success), performs one read or
// one write, and closes the connection. Cross-row consistency comes from
// keeping every multi-statement mutation inside a single transaction and from
// SQLite's write-ahead-log mode; no in-process locks are held.
//
// Key Implementations:
//   - [Store] : connection discipline and the command surface for the UI layer
//   - [Store.LoadTenant] : first-access provisioning by cloning the template user
//   - [Store.Save] : atomic whole-collection replace with post-commit verification
//   - [Store.GetMetadataBatch] : parameter-chunked batch reads of the metadata cache
//   - [SeedLocator] : ordered first-match-wins search for the seed document
//   - [RunMigrations] : idempotent, additive-only schema provisioning
package store
