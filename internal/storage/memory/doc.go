// Package memory provides in-memory session storage.
//
// It implements service.SessionRepository using concurrent-safe data
// structures with sharded locking:
//
//   - Sharded Storage: sessions spread across cmap shards for parallelism
//   - Secondary Index: lookup of a user's sessions by UserID
//
// Thread Safety:
//
// Patches are applied atomically per session under the owning shard's
// lock. Create and Delete additionally take a store-wide lock so the
// primary map and the user index never disagree.
//
// Records are cloned on the way in and on the way out; callers never
// share memory with the store.
package memory
