package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// KeySize is the width of an opaque identity handle.
const KeySize = 32

// Key is an opaque 32-byte handle: an owner identity, a program identity or a
// key-like record field.
type Key [KeySize]byte

// String returns the lowercase hex encoding of k.
func (k Key) String() string { return hex.EncodeToString(k[:]) }

// IsZero reports whether every byte of k is zero.
func (k Key) IsZero() bool { return k == Key{} }

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey decodes a 64-character hex string.
func ParseKey(s string) (Key, error) {
	var k Key
	if len(s) != hex.EncodedLen(KeySize) {
		return k, fmt.Errorf("key: want %d hex characters, got %d", hex.EncodedLen(KeySize), len(s))
	}
	if _, err := hex.Decode(k[:], []byte(s)); err != nil {
		return k, fmt.Errorf("key: %w", err)
	}
	return k, nil
}

// KeyFromSeed derives a key by hashing seed. Useful for human-named owners in
// tools and tests.
func KeyFromSeed(seed string) Key {
	return Key(sha256.Sum256([]byte(seed)))
}

// DeriveAddress derives the storage address of the instance that owner holds
// under tag for the given program identity.
func DeriveAddress(program Key, tag string, owner Key) Key {
	h := sha256.New()
	h.Write([]byte(tag))
	h.Write(owner[:])
	h.Write(program[:])
	var out Key
	copy(out[:], h.Sum(nil))
	return out
}
