// Package appmsg implements the application message codec: the 10-byte
// appliance header, an optional body-type byte plus payload, and a
// trailing CRC-sum-8 checksum. This is the payload that the inner packet
// layer (pkg/message) encrypts and the device adapters (pkg/appliance)
// build and interpret.
package appmsg

import "errors"

var (
	ErrTooShort    = errors.New("appmsg: data shorter than header+checksum size")
	ErrBadMagic    = errors.New("appmsg: bad magic byte")
	ErrBadChecksum = errors.New("appmsg: checksum mismatch")
)

// HeaderSize is the fixed appliance message header length in bytes.
const HeaderSize = 10

const magicByte = 0xAA

// MessageType identifies the kind of appliance message (header offset 9).
type MessageType byte

// Known message types (Section 4.3).
const (
	MessageTypeSet            MessageType = 0x02
	MessageTypeQuery          MessageType = 0x03
	MessageTypeNotify1        MessageType = 0x04
	MessageTypeNotify2        MessageType = 0x05
	MessageTypeException      MessageType = 0x06
	MessageTypeException2     MessageType = 0x0A
	MessageTypeQueryAppliance MessageType = 0xA0
)
