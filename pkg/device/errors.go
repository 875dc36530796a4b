// Package device implements the session engine (C6): the state machine,
// background task, and observer fanout that drive one TCP connection to
// one appliance, built on the inner packet (pkg/message), application
// message (pkg/appmsg), outer frame (pkg/transport), and handshake
// (pkg/handshake) layers below it.
package device

import (
	"errors"
	"time"
)

// Session errors, surfaced to callers or to observer availability state.
var (
	// ErrConnectError wraps a TCP connect failure. It is surfaced through
	// the "error" key of the unavailable notify sent to observers; the
	// session itself retries after 5s rather than returning it to callers.
	ErrConnectError = errors.New("device: TCP connect failed")

	// ErrAuthError wraps a v3 handshake failure. It is surfaced through
	// the "error" key of the final unavailable notify sent to observers
	// before the session terminates; the caller must Open a new one.
	ErrAuthError = errors.New("device: handshake authentication failed")

	// ErrIntegrityError marks a v3 signature, MD5 tag, or checksum
	// mismatch; the socket is dropped and the session reconnects.
	ErrIntegrityError = errors.New("device: integrity check failed")

	// ErrFramingError marks a bad magic or impossible length in the
	// outer frame stream; the socket is dropped and the session
	// reconnects.
	ErrFramingError = errors.New("device: frame parse error")

	// ErrResponseTimeout is returned by RefreshStatus(wait=true) when no
	// reply parses successfully within 5s.
	ErrResponseTimeout = errors.New("device: response timeout")

	// ErrRefreshFailed is returned when every query in a refresh cycle
	// is in the unsupported set.
	ErrRefreshFailed = errors.New("device: all refresh queries unsupported")

	// ErrHeartbeatTimeout marks 120 consecutive idle ticks with no
	// successful inbound parse; the socket is dropped and the session
	// reconnects.
	ErrHeartbeatTimeout = errors.New("device: heartbeat timeout")

	// ErrNotConnected is returned by SendCommand when the session isn't
	// in the Ready state.
	ErrNotConnected = errors.New("device: not connected")

	// ErrClosed is returned by SendCommand, RefreshStatus, or a pending
	// refresh wait when the session is closed while the call is in
	// progress. Calls made after Close return ErrNotConnected.
	ErrClosed = errors.New("device: session closed")
)

// State is a session's position in the C6 state machine.
type State int

// Session states.
const (
	StateIdle State = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateReconnecting
	StateClosed
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateAuthenticating:
		return "Authenticating"
	case StateReady:
		return "Ready"
	case StateReconnecting:
		return "Reconnecting"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Tuning constants (Section 4.6/5).
const (
	connectTimeout   = 10 * time.Second
	reconnectBackoff = 5 * time.Second
	tickInterval     = 1 * time.Second
	refreshWaitLimit = 5 * time.Second
	heartbeatIdleMax = 120 // consecutive idle ticks before ErrHeartbeatTimeout

	commandQueueDepth = 32

	defaultPort              uint16 = 6444
	defaultProtocol                = 3
	defaultRefreshInterval          = 30 * time.Second
	defaultHeartbeatInterval        = 10 * time.Second
)
