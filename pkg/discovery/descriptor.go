package discovery

// Descriptor is the immutable metadata a discovery response reveals
// about one device. Callers combine it with credentials (token/key) to
// build a device.Descriptor and open a session.
type Descriptor struct {
	DeviceID      uint64
	ApplianceType byte
	Serial        string
	SSID          string
	Address       string
	Port          uint16
}
