package discovery

import (
	"bytes"
	"encoding/binary"
)

// parseResponse decodes one discovery response datagram. addr is the
// source address the datagram arrived from, used as the device's
// control-plane address since responses carry no address field of
// their own.
func parseResponse(data []byte, addr string) (Descriptor, error) {
	if len(data) < minResponseSize {
		return Descriptor{}, errResponseTooShort
	}
	if data[0] != magicByte || data[1] != magicByte {
		return Descriptor{}, errResponseTooShort
	}

	return Descriptor{
		DeviceID:      binary.LittleEndian.Uint64(data[20:28]),
		ApplianceType: data[38],
		Serial:        nulTerminated(data[40:72]),
		SSID:          nulTerminated(data[72:104]),
		Address:       addr,
		Port:          defaultPort,
	}, nil
}

func nulTerminated(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
