// Package cryptox holds the few cryptographic helpers the server needs.
// The server never decrypts anything: share keys, user keys and device keys
// are opaque to it. Fingerprints let logs refer to key material without
// containing it.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// fingerprintSize is the digest length in bytes (hex output is twice as long).
const fingerprintSize = 8

// Fingerprint returns a short, stable BLAKE2b digest of key suitable for logs.
// An empty key yields an empty fingerprint.
func Fingerprint(key string) string {
	if key == "" {
		return ""
	}
	h, err := blake2b.New(fingerprintSize, nil)
	if err != nil {
		// only fails for invalid sizes or keys, both are constants here
		panic(err)
	}
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// Equal compares two opaque values byte by byte in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
