package appmsg

import (
	"github.com/airlync/airlync/pkg/crypto"
)

// Message is the decoded form of an application message: the 10-byte
// header fields plus an optional body-type byte and payload.
type Message struct {
	// ApplianceType identifies the target device family (header offset 2),
	// e.g. 0xAC for an air conditioner.
	ApplianceType byte

	// ProtocolVersion is the protocol version byte (header offset 8). On a
	// request this is usually 0; a device's reply sets it to the version
	// it actually speaks.
	ProtocolVersion byte

	// Type is the message type (header offset 9).
	Type MessageType

	// HasBodyType reports whether BodyType precedes Payload in the body.
	HasBodyType bool

	// BodyType is the optional 1-byte body type, valid only when
	// HasBodyType is true.
	BodyType byte

	// Payload is the body content following BodyType, if any.
	Payload []byte
}

// NewQueryAppliance builds the fixed QUERY_APPLIANCE request: a 19-byte
// zero body whose reply reveals the device's protocol version.
func NewQueryAppliance(applianceType byte) *Message {
	return &Message{
		ApplianceType: applianceType,
		Type:          MessageTypeQueryAppliance,
		Payload:       make([]byte, 19),
	}
}

// Encode assembles the header, body, and trailing CRC-sum-8 checksum.
func (m *Message) Encode() []byte {
	body := m.body()
	total := HeaderSize + len(body) + 1

	buf := make([]byte, HeaderSize, total)
	buf[0] = magicByte
	buf[1] = byte(total - 1)
	buf[2] = m.ApplianceType
	buf[8] = m.ProtocolVersion
	buf[9] = byte(m.Type)

	buf = append(buf, body...)
	buf = append(buf, crypto.ChecksumSum8(buf[1:]))
	return buf
}

func (m *Message) body() []byte {
	if !m.HasBodyType {
		return m.Payload
	}
	out := make([]byte, 0, 1+len(m.Payload))
	out = append(out, m.BodyType)
	out = append(out, m.Payload...)
	return out
}

// Decode parses an application message, validating its length and
// trailing checksum.
func Decode(data []byte) (*Message, error) {
	if len(data) < HeaderSize+1 {
		return nil, ErrTooShort
	}
	if data[0] != magicByte {
		return nil, ErrBadMagic
	}
	if !crypto.VerifyChecksumSum8(data[1:]) {
		return nil, ErrBadChecksum
	}

	body := data[HeaderSize : len(data)-1]
	return &Message{
		ApplianceType:   data[2],
		ProtocolVersion: data[8],
		Type:            MessageType(data[9]),
		Payload:         append([]byte(nil), body...),
	}, nil
}
