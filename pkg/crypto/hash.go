// Package crypto provides the symmetric cryptographic primitives used by
// the appliance LAN protocol: AES-128-ECB, AES-CBC, the MD5-salted integrity
// tag, SHA-256, and the 8-bit checksum used by appliance messages.
package crypto

import "crypto/sha256"

// SHA256LenBytes is the SHA-256 digest size.
const SHA256LenBytes = 32

// SHA256Slice computes the SHA-256 digest and returns it as a slice.
func SHA256Slice(message []byte) []byte {
	h := sha256.Sum256(message)
	return h[:]
}
