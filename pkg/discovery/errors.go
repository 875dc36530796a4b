// Package discovery implements the UDP broadcast probe/response exchange
// (C7): it finds devices on the local network and derives the identity
// hash used for cloud-assisted credential lookup. It is independent of
// the session engine (pkg/device); callers map each Descriptor it
// produces onto a device.Descriptor before opening a session.
package discovery

import "errors"

// errResponseTooShort is returned internally when a UDP datagram is
// shorter than the minimum valid response size or lacks the 0x5A 0x5A
// magic prefix; such datagrams are silently skipped rather than
// surfaced as a Discover error.
var errResponseTooShort = errors.New("discovery: response shorter than minimum size")

const (
	minResponseSize = 104
	magicByte       = 0x5A

	probePort   = 6445
	defaultPort = 6444
)
