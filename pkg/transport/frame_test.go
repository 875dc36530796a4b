package transport

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeHandshakeFrame(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 64)

	encoded, next, err := EncodeFrame(payload, MsgTypeHandshakeRequest, 0, nil)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if next != 1 {
		t.Errorf("next counter = %d, want 1", next)
	}
	if encoded[0] != magicHi || encoded[1] != magicLo {
		t.Fatalf("bad magic in encoded frame")
	}

	frames, leftover, err := DecodeFrames(encoded, nil)
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if len(leftover) != 0 {
		t.Errorf("leftover = %d bytes, want 0", len(leftover))
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Counter != 0 {
		t.Errorf("Counter = %d, want 0", frames[0].Counter)
	}
	if !bytes.Equal(frames[0].Payload, payload) {
		t.Errorf("Payload mismatch")
	}
}

func TestEncodeDecodeEncryptedFrame(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	payload := []byte("application message bytes")

	encoded, next, err := EncodeFrame(payload, MsgTypeEncryptedRequest, 5, key)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if next != 6 {
		t.Errorf("next counter = %d, want 6", next)
	}

	frames, leftover, err := DecodeFrames(encoded, key)
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if len(leftover) != 0 {
		t.Errorf("leftover = %d bytes, want 0", len(leftover))
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Counter != 5 {
		t.Errorf("Counter = %d, want 5", frames[0].Counter)
	}
	if !bytes.Equal(frames[0].Payload, payload) {
		t.Errorf("Payload = %q, want %q", frames[0].Payload, payload)
	}
}

func TestDecodeFramesReturnsPartialAsLeftover(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 16)
	encoded, _, err := EncodeFrame([]byte("hello"), MsgTypeEncryptedResponse, 0, key)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	partial := encoded[:len(encoded)-4]
	frames, leftover, err := DecodeFrames(partial, key)
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("got %d frames from a partial buffer, want 0", len(frames))
	}
	if !bytes.Equal(leftover, partial) {
		t.Errorf("leftover should equal the partial input unchanged")
	}
}

func TestDecodeFramesMultipleInOneBuffer(t *testing.T) {
	key := bytes.Repeat([]byte{0x09}, 16)
	f1, c1, err := EncodeFrame([]byte("first"), MsgTypeEncryptedRequest, 0, key)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	f2, _, err := EncodeFrame([]byte("second"), MsgTypeEncryptedRequest, c1, key)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	buf := append(append([]byte(nil), f1...), f2...)
	frames, leftover, err := DecodeFrames(buf, key)
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if len(leftover) != 0 {
		t.Errorf("leftover = %d bytes, want 0", len(leftover))
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if string(frames[0].Payload) != "first" || string(frames[1].Payload) != "second" {
		t.Errorf("frames out of order or corrupted: %q, %q", frames[0].Payload, frames[1].Payload)
	}
}

func TestDecodeFramesRejectsBadMagic(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x02, 0x20, 0x00, 0x00, 0x00}
	if _, _, err := DecodeFrames(buf, nil); err != ErrBadMagic {
		t.Errorf("DecodeFrames: got %v, want ErrBadMagic", err)
	}
}

func TestDecodeFramesSurfacesErrorFrame(t *testing.T) {
	key := bytes.Repeat([]byte{0x07}, 16)

	// A device reporting an application-level error encrypts "ERROR" like
	// any other frame but doesn't bother computing a valid signature.
	encoded, _, err := EncodeFrame(errorFramePayload, MsgTypeEncryptedResponse, 7, key)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	// Corrupt the trailing signature so it no longer verifies.
	for i := len(encoded) - signatureSize; i < len(encoded); i++ {
		encoded[i] = 0x00
	}

	frames, _, err := DecodeFrames(encoded, key)
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if len(frames) != 1 || !frames[0].IsError {
		t.Fatalf("expected a single IsError frame, got %+v", frames)
	}
}
