package adaptive

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNew(t *testing.T) {
	c, err := New(testKey())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Type() != CipherAESGCM && c.Type() != CipherChaCha20 {
		t.Errorf("New() returned unknown cipher type: %s", c.Type())
	}
}

func TestRoundTrip(t *testing.T) {
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(typ), func(t *testing.T) {
			c, err := NewWithType(testKey(), typ)
			if err != nil {
				t.Fatalf("NewWithType() error = %v", err)
			}

			plaintext := []byte(`{"session_id":"abc"}`)
			aad := []byte("abc")

			sealed, err := c.Encrypt(plaintext, aad)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(sealed) != len(plaintext)+c.Overhead() {
				t.Errorf("sealed len = %d, want %d", len(sealed), len(plaintext)+c.Overhead())
			}

			opened, err := c.Decrypt(sealed, aad)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(opened, plaintext) {
				t.Errorf("Decrypt() = %q, want %q", opened, plaintext)
			}

			if _, err := c.Decrypt(sealed, []byte("other")); err == nil {
				t.Error("Decrypt with wrong additional data should fail")
			}
		})
	}
}

func TestEncrypt_UniqueNonce(t *testing.T) {
	c, _ := NewWithType(testKey(), CipherChaCha20)
	a, _ := c.Encrypt([]byte("x"), nil)
	b, _ := c.Encrypt([]byte("x"), nil)
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same plaintext should differ")
	}
}

func TestDecrypt_TooShort(t *testing.T) {
	c, _ := NewWithType(testKey(), CipherAESGCM)
	if _, err := c.Decrypt([]byte{1, 2, 3}, nil); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("Decrypt() error = %v, want ErrCiphertextTooShort", err)
	}
}

func TestNewWithType_InvalidKey(t *testing.T) {
	if _, err := NewWithType(make([]byte, 10), CipherAESGCM); err == nil {
		t.Error("AES-GCM accepted a 10-byte key")
	}
	if _, err := NewWithType(make([]byte, 16), CipherChaCha20); err == nil {
		t.Error("ChaCha20 accepted a 16-byte key")
	}
	if _, err := NewWithType(testKey(), "rot13"); err == nil {
		t.Error("unknown cipher type accepted")
	}
}

func TestDeriveKey(t *testing.T) {
	k1, err := DeriveKey([]byte("hunter2"), "sessions")
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if len(k1) != KeySize {
		t.Fatalf("len = %d, want %d", len(k1), KeySize)
	}

	k2, _ := DeriveKey([]byte("hunter2"), "sessions")
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey is not deterministic")
	}

	k3, _ := DeriveKey([]byte("hunter2"), "other")
	if bytes.Equal(k1, k3) {
		t.Error("different info should yield a different key")
	}

	if _, err := DeriveKey(nil, "sessions"); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("DeriveKey(nil) error = %v, want ErrEmptySecret", err)
	}
}
