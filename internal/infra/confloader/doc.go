// Package confloader loads layered configuration with koanf and watches the
// configuration file for changes.
//
// Priority (highest to lowest):
//
//  1. Environment variables (FINTRACKR_ prefix)
//  2. Configuration file (YAML)
//  3. Values already present in the target struct (defaults)
//
// Environment keys use a double underscore as the section separator so that
// single underscores can stay inside key names:
//
//	FINTRACKR_SESSION__MAX_PER_USER=3   ->  session.max_per_user
//	FINTRACKR_STORAGE__REDIS__URL=...   ->  storage.redis.url
package confloader
