// Package message implements the inner packet envelope: the fixed 40-byte
// header, AES-ECB-encrypted (or cleartext, for handshake packets) body, and
// trailing MD5-salted integrity tag that wraps every appliance message
// before it is handed to the outer transport framing.
package message

import "errors"

// Inner packet errors.
var (
	ErrPacketTooShort = errors.New("message: data shorter than header+tag size")
	ErrBadMagic       = errors.New("message: bad magic bytes")
	ErrBadTag         = errors.New("message: MD5 tag mismatch")
)

// Wire layout constants (Section 4.2).
const (
	// HeaderSize is the fixed inner packet header length in bytes.
	HeaderSize = 40

	// TagSize is the trailing MD5-salted tag length in bytes.
	TagSize = 16

	magicByte = 0x5A

	versionMinor        = 0x11
	versionMinorHandshake = 0x10

	flagsStandard uint16 = 0x0020
	flagsHandshakeLo byte = 0x7B
)
