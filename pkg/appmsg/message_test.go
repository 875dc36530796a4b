package appmsg

import (
	"bytes"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	m := &Message{
		ApplianceType:   0xAC,
		ProtocolVersion: 3,
		Type:            MessageTypeSet,
		HasBodyType:     true,
		BodyType:        0x01,
		Payload:         []byte{0x01, 0x02, 0x03},
	}

	encoded := m.Encode()
	if encoded[0] != magicByte {
		t.Fatalf("bad magic byte 0x%02X", encoded[0])
	}
	if int(encoded[1]) != len(encoded)-1 {
		t.Errorf("total_len = %d, want %d", encoded[1], len(encoded)-1)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.ApplianceType != m.ApplianceType {
		t.Errorf("ApplianceType = 0x%02X, want 0x%02X", decoded.ApplianceType, m.ApplianceType)
	}
	if decoded.ProtocolVersion != m.ProtocolVersion {
		t.Errorf("ProtocolVersion = %d, want %d", decoded.ProtocolVersion, m.ProtocolVersion)
	}
	if decoded.Type != m.Type {
		t.Errorf("Type = 0x%02X, want 0x%02X", decoded.Type, m.Type)
	}
	wantBody := append([]byte{m.BodyType}, m.Payload...)
	if !bytes.Equal(decoded.Payload, wantBody) {
		t.Errorf("Payload = %x, want %x", decoded.Payload, wantBody)
	}
}

func TestQueryApplianceRequest(t *testing.T) {
	m := NewQueryAppliance(0xA1)
	encoded := m.Encode()

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Type != MessageTypeQueryAppliance {
		t.Errorf("Type = 0x%02X, want MessageTypeQueryAppliance", decoded.Type)
	}
	if len(decoded.Payload) != 19 {
		t.Errorf("Payload length = %d, want 19", len(decoded.Payload))
	}
	for _, b := range decoded.Payload {
		if b != 0 {
			t.Fatalf("QUERY_APPLIANCE body not all zero: %x", decoded.Payload)
		}
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	m := &Message{ApplianceType: 0xAC, Type: MessageTypeQuery}
	encoded := m.Encode()
	encoded[0] = 0x00
	if _, err := Decode(encoded); err != ErrBadMagic {
		t.Errorf("Decode: got %v, want ErrBadMagic", err)
	}
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	m := &Message{ApplianceType: 0xAC, Type: MessageTypeQuery}
	encoded := m.Encode()
	encoded[len(encoded)-1] ^= 0xFF
	if _, err := Decode(encoded); err != ErrBadChecksum {
		t.Errorf("Decode: got %v, want ErrBadChecksum", err)
	}
}

func TestDecodeRejectsShortData(t *testing.T) {
	if _, err := Decode(make([]byte, HeaderSize)); err != ErrTooShort {
		t.Errorf("Decode: got %v, want ErrTooShort", err)
	}
}
