package device

import "time"

// Descriptor is the immutable configuration identifying one device and
// how a session should talk to it. DeviceID is typically filled in from
// a discovery result (pkg/discovery); Token, Key, and the address are
// supplied by the caller.
type Descriptor struct {
	Name     string
	DeviceID uint64
	IP       string
	Port     uint16

	// Token and Key are the handshake credentials for Protocol 3.
	Token [64]byte
	Key   [32]byte

	// Protocol is 2 or 3. Protocol 3 runs the full handshake and outer
	// v3 framing; protocol 2 sends inner packets directly over the
	// socket with no outer frame, no session key, and no signature.
	Protocol int

	RefreshInterval   time.Duration
	HeartbeatInterval time.Duration
}

// withDefaults fills the zero-value optional fields with their documented
// defaults.
func (d Descriptor) withDefaults() Descriptor {
	if d.Port == 0 {
		d.Port = defaultPort
	}
	if d.Protocol == 0 {
		d.Protocol = defaultProtocol
	}
	if d.RefreshInterval == 0 {
		d.RefreshInterval = defaultRefreshInterval
	}
	if d.HeartbeatInterval == 0 {
		d.HeartbeatInterval = defaultHeartbeatInterval
	}
	return d
}
