package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/airlync/airlync/pkg/crypto"
)

// InnerPacket is the decoded form of a C2 inner packet: the fields carried
// in the 40-byte header plus the application message body, with the
// AES-ECB encryption and MD5-salted tag already stripped.
type InnerPacket struct {
	// Handshake marks a handshake-type packet: its body travels in the
	// clear instead of AES-ECB-encrypted, and the header's version/flags
	// bytes carry the handshake markers (0x10, 0x7B) instead of the
	// standard ones (0x11, 0x20).
	Handshake bool

	// MessageID is the 32-bit message identifier carried at header offset 8.
	MessageID uint32

	// DeviceID is the little-endian device identifier at header offset 20.
	DeviceID uint64

	// Body is the application message payload: cleartext on both sides of
	// Encode/Decode, regardless of Handshake.
	Body []byte
}

// Encode assembles the 40-byte header, encrypts Body under AES-128-ECB
// (unless Handshake), and appends the MD5-salted tag over everything that
// precedes it.
func (p *InnerPacket) Encode() ([]byte, error) {
	body := p.Body
	if !p.Handshake {
		encrypted, err := crypto.EncryptECB(p.Body)
		if err != nil {
			return nil, fmt.Errorf("message: encrypt body: %w", err)
		}
		body = encrypted
	}

	total := HeaderSize + len(body) + TagSize
	buf := make([]byte, HeaderSize, total)

	buf[0] = magicByte
	buf[1] = magicByte
	buf[2] = 0x01
	if p.Handshake {
		buf[3] = versionMinorHandshake
		buf[6] = flagsHandshakeLo
		buf[7] = 0x00
	} else {
		buf[3] = versionMinor
		binary.LittleEndian.PutUint16(buf[6:8], flagsStandard)
	}
	binary.LittleEndian.PutUint16(buf[4:6], uint16(total))
	binary.LittleEndian.PutUint32(buf[8:12], p.MessageID)
	ts := encodeTimestamp(time.Now())
	copy(buf[12:20], ts[:])
	binary.LittleEndian.PutUint64(buf[20:28], p.DeviceID)
	// buf[28:40] stays zero padding.

	buf = append(buf, body...)

	tag := crypto.MD5SaltedTag(buf)
	buf = append(buf, tag[:]...)

	return buf, nil
}

// Decode reverses Encode: it verifies the magic bytes and MD5 tag, then
// decrypts the body slice (or copies it verbatim for a handshake packet).
func Decode(data []byte) (*InnerPacket, error) {
	if len(data) < HeaderSize+TagSize {
		return nil, ErrPacketTooShort
	}
	if data[0] != magicByte || data[1] != magicByte {
		return nil, ErrBadMagic
	}

	tagStart := len(data) - TagSize
	wantTag := crypto.MD5SaltedTag(data[:tagStart])
	if !bytes.Equal(wantTag[:], data[tagStart:]) {
		return nil, ErrBadTag
	}

	handshake := data[3] == versionMinorHandshake

	p := &InnerPacket{
		Handshake: handshake,
		MessageID: binary.LittleEndian.Uint32(data[8:12]),
		DeviceID:  binary.LittleEndian.Uint64(data[20:28]),
	}

	bodyBytes := data[HeaderSize:tagStart]
	if handshake {
		p.Body = append([]byte(nil), bodyBytes...)
		return p, nil
	}

	plain, err := crypto.DecryptECB(bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("message: decrypt body: %w", err)
	}
	p.Body = plain
	return p, nil
}

// DecodeStream attempts to split one inner packet off the front of buf,
// using the length field at offset 4 to find its end. It returns (nil,
// buf, nil) when buf doesn't yet hold a complete packet, so callers can
// keep accumulating bytes from a stream (the protocol v2 wire format,
// which has no outer frame to delimit packets).
func DecodeStream(buf []byte) (*InnerPacket, []byte, error) {
	if len(buf) < HeaderSize {
		return nil, buf, nil
	}
	total := int(binary.LittleEndian.Uint16(buf[4:6]))
	if total < HeaderSize+TagSize {
		return nil, buf, ErrPacketTooShort
	}
	if len(buf) < total {
		return nil, buf, nil
	}
	p, err := Decode(buf[:total])
	if err != nil {
		return nil, buf, err
	}
	return p, buf[total:], nil
}

// encodeTimestamp formats t as the 16-digit decimal string
// YYYYMMDDHHmmssSS (SS = hundredths of a second), packs each digit pair
// into a BCD byte, then reverses the resulting 8-byte array.
func encodeTimestamp(t time.Time) [8]byte {
	digits := fmt.Sprintf("%s%02d", t.Format("20060102150405"), t.Nanosecond()/10_000_000)

	var packed [8]byte
	for i := 0; i < 8; i++ {
		tens := digits[2*i] - '0'
		ones := digits[2*i+1] - '0'
		packed[i] = tens<<4 | ones
	}

	var out [8]byte
	for i := 0; i < 8; i++ {
		out[i] = packed[7-i]
	}
	return out
}
