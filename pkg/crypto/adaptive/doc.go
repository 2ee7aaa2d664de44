// Package adaptive provides authenticated encryption with hardware-aware
// algorithm selection.
//
// Supported algorithms:
//
//   - AES-256-GCM: preferred where the CPU accelerates AES
//   - ChaCha20-Poly1305: used elsewhere
//
// Keys are derived from an operator supplied secret with HKDF-SHA256 so
// that any non-empty secret yields a full-strength 32-byte key:
//
//	key, err := adaptive.DeriveKey([]byte(secret), "fintrackr/sessions")
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
package adaptive
