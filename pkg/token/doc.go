// Package token provides cryptographically secure identifier generation.
//
// Identifiers are drawn from crypto/rand. Hex encoding is used for
// session IDs so they are safe in cookies, URLs and storage keys
// without further escaping.
package token
