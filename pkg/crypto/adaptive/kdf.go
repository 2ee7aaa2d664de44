package adaptive

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the size of keys returned by DeriveKey.
const KeySize = 32

// ErrEmptySecret is returned when DeriveKey is given no secret material.
var ErrEmptySecret = errors.New("adaptive: empty secret")

// DeriveKey stretches secret into a KeySize key bound to info using HKDF-SHA256.
// The same secret and info always produce the same key.
func DeriveKey(secret []byte, info string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
