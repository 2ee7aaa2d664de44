// Package cmap provides a concurrent map split into independently locked shards.
//
// Keys are assigned to shards by their murmur3 hash. Read operations
// (Get, Has, Range) take the shard's read lock; writes take its write lock.
//
//	m := cmap.New[string, *domain.Session]()
//	m.Set(s.ID, s)
//	val, ok := m.Get(s.ID)
package cmap
