package discovery

import (
	"encoding/binary"
	"testing"
)

func buildResponse(deviceID uint64, applianceType byte, serial, ssid string) []byte {
	buf := make([]byte, minResponseSize)
	buf[0] = magicByte
	buf[1] = magicByte
	binary.LittleEndian.PutUint64(buf[20:28], deviceID)
	buf[38] = applianceType
	copy(buf[40:72], serial)
	copy(buf[72:104], ssid)
	return buf
}

func TestParseResponse(t *testing.T) {
	data := buildResponse(123456789, 0xAC, "ABC123", "midea_ac_XYZ")

	desc, err := parseResponse(data, "192.0.2.10")
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if desc.DeviceID != 123456789 {
		t.Errorf("DeviceID = %d, want 123456789", desc.DeviceID)
	}
	if desc.ApplianceType != 0xAC {
		t.Errorf("ApplianceType = 0x%02X, want 0xAC", desc.ApplianceType)
	}
	if desc.Serial != "ABC123" {
		t.Errorf("Serial = %q, want ABC123", desc.Serial)
	}
	if desc.SSID != "midea_ac_XYZ" {
		t.Errorf("SSID = %q, want midea_ac_XYZ", desc.SSID)
	}
	if desc.Address != "192.0.2.10" {
		t.Errorf("Address = %q, want 192.0.2.10", desc.Address)
	}
}

func TestParseResponseRejectsShort(t *testing.T) {
	if _, err := parseResponse(make([]byte, minResponseSize-1), "x"); err == nil {
		t.Error("expected error for undersized response")
	}
}

func TestParseResponseRejectsBadMagic(t *testing.T) {
	data := buildResponse(1, 0xAC, "s", "n")
	data[0] = 0x00
	if _, err := parseResponse(data, "x"); err == nil {
		t.Error("expected error for bad magic")
	}
}
