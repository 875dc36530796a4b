// Package transport implements the outer v3 frame codec and the single
// TCP connection a device session is built on: 6-byte frame headers,
// AES-CBC + SHA-256 signed encrypted frames, the request/response sequence
// counters, and stream reassembly of the accumulated receive buffer.
package transport

import "errors"

// Frame errors.
var (
	// ErrBadMagic is a fatal framing error: the peer's byte stream has lost
	// synchronization and the connection carrying it must be dropped.
	ErrBadMagic = errors.New("transport: bad frame magic, connection desynchronized")

	// ErrImpossibleLength is a fatal framing error for a declared frame size
	// that cannot be reconciled with the wire format (e.g. shorter than the
	// counter field it must contain).
	ErrImpossibleLength = errors.New("transport: impossible frame length")

	// ErrIntegrity is a fatal framing error: an encrypted frame's signature
	// did not match the SHA-256 of its header and decrypted plaintext.
	ErrIntegrity = errors.New("transport: signature mismatch on encrypted frame")
)

// MsgType identifies the outer frame's message type (low nibble of the
// header's final byte).
type MsgType byte

// Known frame message types (Section 4.4).
const (
	MsgTypeHandshakeRequest  MsgType = 0x00
	MsgTypeHandshakeResponse MsgType = 0x01
	MsgTypeEncryptedResponse MsgType = 0x03
	MsgTypeEncryptedRequest  MsgType = 0x06
)

func (t MsgType) encrypted() bool {
	return t == MsgTypeEncryptedRequest || t == MsgTypeEncryptedResponse
}

// Wire layout constants.
const (
	frameHeaderSize = 6
	signatureSize   = 32

	magicHi = 0x83
	magicLo = 0x70
)

// errorFramePayload is the ASCII payload a device sends, without a
// verifiable signature, to report an error. DecodeFrames surfaces such a
// frame with IsError set instead of returning ErrIntegrity; the device
// session drops the connection when it sees one.
var errorFramePayload = []byte("ERROR")
