package transport

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"

	"github.com/airlync/airlync/pkg/crypto"
)

// Frame is one decoded outer v3 frame: its message type, the sequence
// counter carried in its first two payload bytes, and the plaintext body
// that follows.
type Frame struct {
	Type    MsgType
	Counter uint16
	Payload []byte

	// IsError marks a frame whose signature didn't verify because the
	// peer sent the literal ASCII payload "ERROR" instead of a real
	// signed frame. This is reported to the caller rather than treated
	// as a fatal integrity failure.
	IsError bool
}

// EncodeFrame builds one outer v3 frame wrapping payload, using counter as
// its sequence number. For the two encrypted message types, tcpKey signs
// and encrypts the frame; for the handshake types it is ignored and the
// frame carries its counter and payload in the clear. It returns the
// encoded bytes and the counter to use for the next frame (wrapping from
// 0xFFFF back to 0).
func EncodeFrame(payload []byte, msgType MsgType, counter uint16, tcpKey []byte) ([]byte, uint16, error) {
	encrypted := msgType.encrypted()

	body := payload
	var pad int
	if encrypted {
		pad = (16 - (len(payload)+2)%16) % 16
		if pad > 0 {
			padding := make([]byte, pad)
			if _, err := rand.Read(padding); err != nil {
				return nil, counter, err
			}
			body = append(append([]byte(nil), payload...), padding...)
		}
	}

	counterAndBody := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(counterAndBody, counter)
	copy(counterAndBody[2:], body)

	size := len(counterAndBody)
	if encrypted {
		size += signatureSize
	}

	header := [frameHeaderSize]byte{
		magicHi, magicLo,
		byte(size >> 8), byte(size),
		0x20,
		byte(pad<<4) | byte(msgType),
	}

	nextCounter := counter + 1

	if !encrypted {
		frame := append(append([]byte(nil), header[:]...), counterAndBody...)
		return frame, nextCounter, nil
	}

	sign := crypto.SHA256Slice(append(append([]byte(nil), header[:]...), counterAndBody...))
	cipherText, err := crypto.EncryptCBC(counterAndBody, tcpKey)
	if err != nil {
		return nil, counter, err
	}

	frame := make([]byte, 0, frameHeaderSize+len(cipherText)+len(sign))
	frame = append(frame, header[:]...)
	frame = append(frame, cipherText...)
	frame = append(frame, sign...)
	return frame, nextCounter, nil
}

// DecodeFrames repeatedly parses complete frames out of buf, returning the
// decoded frames in arrival order and whatever trailing bytes remain (a
// partial frame awaiting more data). A non-nil error is always fatal:
// the caller must drop the connection.
func DecodeFrames(buf []byte, tcpKey []byte) ([]Frame, []byte, error) {
	var frames []Frame

	for len(buf) >= frameHeaderSize {
		if buf[0] != magicHi || buf[1] != magicLo {
			return frames, buf, ErrBadMagic
		}

		size := int(binary.BigEndian.Uint16(buf[2:4]))
		total := frameHeaderSize + size
		if size < 2 {
			return frames, buf, ErrImpossibleLength
		}
		if len(buf) < total {
			return frames, buf, nil
		}

		packet := buf[:total]
		msgType := MsgType(packet[5] & 0x0F)
		pad := int(packet[5] >> 4)

		counterAndBody := packet[frameHeaderSize:total]

		var frame Frame
		frame.Type = msgType

		if msgType.encrypted() {
			if len(counterAndBody) < signatureSize+2 {
				return frames, buf, ErrImpossibleLength
			}
			cipherText := counterAndBody[:len(counterAndBody)-signatureSize]
			sign := counterAndBody[len(counterAndBody)-signatureSize:]

			plain, err := crypto.DecryptCBC(cipherText, tcpKey)
			if err != nil {
				return frames, buf, err
			}

			want := crypto.SHA256Slice(append(append([]byte(nil), packet[:frameHeaderSize]...), plain...))
			if !bytes.Equal(want, sign) {
				if len(plain) >= 2+len(errorFramePayload) && bytes.Equal(plain[2:2+len(errorFramePayload)], errorFramePayload) {
					frame.IsError = true
					frame.Payload = append([]byte(nil), errorFramePayload...)
					frames = append(frames, frame)
					buf = buf[total:]
					continue
				}
				return frames, buf, ErrIntegrity
			}

			if pad > 0 && pad <= len(plain) {
				plain = plain[:len(plain)-pad]
			}
			if len(plain) < 2 {
				return frames, buf, ErrImpossibleLength
			}
			frame.Counter = binary.BigEndian.Uint16(plain[:2])
			frame.Payload = append([]byte(nil), plain[2:]...)
		} else {
			if pad > 0 && pad <= len(counterAndBody) {
				counterAndBody = counterAndBody[:len(counterAndBody)-pad]
			}
			if len(counterAndBody) < 2 {
				return frames, buf, ErrImpossibleLength
			}
			frame.Counter = binary.BigEndian.Uint16(counterAndBody[:2])
			frame.Payload = append([]byte(nil), counterAndBody[2:]...)
		}

		frames = append(frames, frame)
		buf = buf[total:]
	}

	return frames, buf, nil
}
