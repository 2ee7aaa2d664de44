// Package storage provides the durable session backends and the factory
// that selects one from configuration.
//
// Backends:
//
//   - memory: in-process, lost on restart (package memory)
//   - badger: embedded LSM store under data_dir, optional at-rest sealing
//   - redis: shared store for several daemon processes (package redisstore)
//
// Every backend implements service.SessionRepository and reports
// domain.ErrSessionNotFound for unknown IDs.
package storage
