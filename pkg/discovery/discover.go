package discovery

import (
	"net"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultBroadcastAddr is the address the probe is sent to when the
// caller doesn't supply one.
const DefaultBroadcastAddr = "255.255.255.255"

// DefaultTimeout bounds how long Discover listens for responses.
const DefaultTimeout = 5 * time.Second

// Discover broadcasts the probe to broadcastAddr (DefaultBroadcastAddr
// if empty) and collects responses for timeout (DefaultTimeout if zero).
// Responses are deduplicated by device ID; the last response observed
// for a given ID wins.
func Discover(broadcastAddr string, timeout time.Duration) (map[uint64]Descriptor, error) {
	if broadcastAddr == "" {
		broadcastAddr = DefaultBroadcastAddr
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if err := enableBroadcast(conn); err != nil {
		return nil, err
	}

	dst, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(broadcastAddr, strconv.Itoa(probePort)))
	if err != nil {
		return nil, err
	}
	if _, err := conn.WriteToUDP(probePayload, dst); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	found := make(map[uint64]Descriptor)
	buf := make([]byte, 1500)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				break
			}
			return found, err
		}

		desc, parseErr := parseResponse(buf[:n], src.IP.String())
		if parseErr != nil {
			continue
		}
		found[desc.DeviceID] = desc
	}

	return found, nil
}

// enableBroadcast sets SO_BROADCAST on conn's underlying file descriptor,
// required before a UDP socket may send to a broadcast address.
func enableBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if ctrlErr := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	}); ctrlErr != nil {
		return ctrlErr
	}
	return sockErr
}
