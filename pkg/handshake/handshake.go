// Package handshake performs the protocol v3 session-key exchange: the
// client offers a random token over the outer transport's unencrypted
// HandshakeRequest frame, and the device's HandshakeResponse yields the
// AES-CBC session key used to encrypt every frame afterward.
package handshake

import (
	"bytes"
	"errors"
	"io"

	"github.com/airlync/airlync/pkg/crypto"
	"github.com/airlync/airlync/pkg/transport"
)

var (
	// ErrNoResponse is returned when the device's reply to a
	// HandshakeRequest never arrives in the decoded frame set.
	ErrNoResponse = errors.New("handshake: no HandshakeResponse frame received")

	// ErrShortResponse is returned when the response payload is shorter
	// than the 64 bytes the handshake requires.
	ErrShortResponse = errors.New("handshake: response payload shorter than 64 bytes")

	// ErrAuthFailed is returned when the response's signature doesn't
	// match the SHA-256 of its decrypted payload.
	ErrAuthFailed = errors.New("handshake: response signature mismatch")
)

// Credentials identifies a device for the v3 handshake.
type Credentials struct {
	// Token is the 64-byte value sent as the HandshakeRequest payload.
	Token [64]byte

	// Key is the 32-byte key the response is decrypted and verified
	// under.
	Key [32]byte
}

// Perform runs the handshake over conn: it sends Token, waits for the
// device's HandshakeResponse, verifies it against Key, and installs the
// derived session key on conn (which also resets conn's request
// counter). It returns the derived key.
func Perform(conn *transport.Conn, creds Credentials) ([]byte, error) {
	if err := conn.Send(creds.Token[:], transport.MsgTypeHandshakeRequest); err != nil {
		return nil, err
	}

	var response []byte
	for response == nil {
		frames, err := conn.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrNoResponse
			}
			return nil, err
		}
		for _, f := range frames {
			if f.Type == transport.MsgTypeHandshakeResponse {
				response = f.Payload
				break
			}
		}
	}

	if len(response) < 64 {
		return nil, ErrShortResponse
	}

	payload := response[0:32]
	sign := response[32:64]

	plain, err := crypto.DecryptCBC(payload, creds.Key[:])
	if err != nil {
		return nil, err
	}

	got := crypto.SHA256Slice(plain)
	if !bytes.Equal(got, sign) {
		return nil, ErrAuthFailed
	}

	tcpKey := crypto.XOR(plain, creds.Key[:])
	conn.SetKey(tcpKey)
	return tcpKey, nil
}
