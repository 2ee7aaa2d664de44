// Package config defines the fintrackr-sessiond configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation
//   - sanitize.go: Masking of secrets for logging
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and FINTRACKR_ environment variables on top of Default().
package config
