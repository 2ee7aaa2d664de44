// Package redisstore implements service.SessionRepository on Redis so that
// several daemon processes can share one session table.
//
// Key layout, relative to the configured prefix:
//
//	session:<id>           string, JSON-encoded session
//	user:<user_id>:sessions set of session IDs
//	sessions               set of every session ID
//
// Writes that read first (update, delete) run under WATCH and retry when a
// concurrent writer touched the session key.
package redisstore
