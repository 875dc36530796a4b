package transport

import (
	"bytes"
	"testing"
	"time"
)

func TestPipeDeliversEncodedFrame(t *testing.T) {
	pipe := NewPipe()
	defer pipe.Close()

	device := NewConn(pipe.DeviceConn(), nil)
	client := pipe.ClientConn()

	key := bytes.Repeat([]byte{0x5A}, 16)
	device.SetKey(key)

	if err := device.Send([]byte("status query"), MsgTypeEncryptedRequest); err != nil {
		t.Fatalf("Send: %v", err)
	}

	raw := make([]byte, 4096)
	client.SetReadDeadline(time.Now().Add(time.Second))
	n, err := client.Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	frames, _, err := DecodeFrames(raw[:n], key)
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if !bytes.Equal(frames[0].Payload, []byte("status query")) {
		t.Errorf("Payload = %q", frames[0].Payload)
	}
}

func TestPipeDropsWritesUnderCondition(t *testing.T) {
	pipe := NewPipe()
	defer pipe.Close()
	pipe.SetCondition(NetworkCondition{DropRate: 1.0})

	device := NewConn(pipe.DeviceConn(), nil)
	client := pipe.ClientConn()

	if err := device.Send([]byte("dropped"), MsgTypeHandshakeRequest); err != nil {
		t.Fatalf("Send: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	raw := make([]byte, 64)
	if _, err := client.Read(raw); err == nil {
		t.Error("expected a read timeout when all writes are dropped")
	}
}
