package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/airlync/airlync/pkg/appliance"
	"github.com/airlync/airlync/pkg/appmsg"
	"github.com/airlync/airlync/pkg/handshake"
	"github.com/airlync/airlync/pkg/message"
	"github.com/airlync/airlync/pkg/transport"
)

// ObserverHandle identifies a registered observer so it can later be
// removed with UnregisterObserver. Handles are tagged identifiers, not
// closure identity, per the session engine's observer-lifecycle design.
type ObserverHandle uuid.UUID

// Observer is invoked, synchronously and in arrival order on the
// session's background task, with every status update and availability
// change it decodes. Implementations must not block.
type Observer func(status map[string]any)

type commandKind int

const (
	cmdSend commandKind = iota
	cmdRefresh
	cmdSetIP
)

type commandRequest struct {
	kind     commandKind
	msgType  appmsg.MessageType
	body     []byte
	wait     bool
	newIP    string
	resultCh chan error
}

// inboundEvent is what a connection's reader goroutine hands back to the
// serve loop: either a decoded protocol v2 inner packet, a batch of
// decoded protocol v3 frames, or a fatal read/decode error.
type inboundEvent struct {
	packet *message.InnerPacket
	frames []transport.Frame
	err    error
}

type observerEntry struct {
	handle ObserverHandle
	fn     Observer
}

// Session is the pairing of one device descriptor, one TCP connection,
// and the background task driving it (Section 4.6).
type Session struct {
	desc          Descriptor
	adapter       appliance.Adapter
	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger

	mu          sync.Mutex
	state       State
	observers   []observerEntry
	unsupported map[appmsg.MessageType]bool

	cmdCh     chan commandRequest
	closeCh   chan struct{}
	doneCh    chan struct{}
	openOnce  sync.Once
	closeOnce sync.Once
	opened    bool

	reconnectBackoff backoff.BackOff
}

// New creates a session for desc, dispatching decoded status through
// adapter. The session does not connect until Open is called.
func New(desc Descriptor, adapter appliance.Adapter, loggerFactory logging.LoggerFactory) *Session {
	s := &Session{
		desc:          desc.withDefaults(),
		adapter:       adapter,
		loggerFactory: loggerFactory,
		unsupported:   make(map[appmsg.MessageType]bool),
		cmdCh:         make(chan commandRequest, commandQueueDepth),
		closeCh:       make(chan struct{}),
		doneCh:        make(chan struct{}),
		reconnectBackoff: backoff.NewConstantBackOff(reconnectBackoff),
	}
	if loggerFactory != nil {
		s.log = loggerFactory.NewLogger("device")
	}
	return s
}

// State returns the session's current state machine position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Open idempotently starts the session's background task. It returns
// immediately.
func (s *Session) Open() {
	s.openOnce.Do(func() {
		s.mu.Lock()
		s.opened = true
		s.mu.Unlock()
		s.setState(StateConnecting)
		go s.run()
	})
}

// Close idempotently signals shutdown and blocks until the background
// task has torn down the socket and notified observers of the resulting
// availability change.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
	s.mu.Lock()
	opened := s.opened
	s.mu.Unlock()
	if opened {
		<-s.doneCh
	} else {
		s.setState(StateClosed)
	}
}

// RegisterObserver adds an observer, invoked on every decoded status
// update and availability change, and returns a handle for later
// removal.
func (s *Session) RegisterObserver(fn Observer) ObserverHandle {
	h := ObserverHandle(uuid.New())
	s.mu.Lock()
	s.observers = append(s.observers, observerEntry{handle: h, fn: fn})
	s.mu.Unlock()
	return h
}

// UnregisterObserver removes a previously registered observer.
func (s *Session) UnregisterObserver(h ObserverHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.observers {
		if e.handle == h {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Session) notify(status map[string]any) {
	s.mu.Lock()
	fns := make([]Observer, len(s.observers))
	for i, e := range s.observers {
		fns[i] = e.fn
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(status)
	}
}

// SendCommand builds an appliance message, wraps it through the inner
// packet and outer frame codecs, and writes it to the socket. It fails
// with ErrNotConnected if the session isn't Ready.
func (s *Session) SendCommand(msgType appmsg.MessageType, body []byte) error {
	if s.State() != StateReady {
		return ErrNotConnected
	}
	req := commandRequest{kind: cmdSend, msgType: msgType, body: body, resultCh: make(chan error, 1)}
	select {
	case s.cmdCh <- req:
	case <-s.closeCh:
		return ErrClosed
	}
	return <-req.resultCh
}

// RefreshStatus emits QUERY_APPLIANCE plus the adapter's own queries. If
// wait is true it blocks up to 5s for any successful response parse;
// otherwise it is fire-and-forget.
func (s *Session) RefreshStatus(wait bool) error {
	if s.State() != StateReady {
		return ErrNotConnected
	}
	req := commandRequest{kind: cmdRefresh, wait: wait, resultCh: make(chan error, 1)}
	select {
	case s.cmdCh <- req:
	case <-s.closeCh:
		return ErrClosed
	}
	return <-req.resultCh
}

// SetIP updates the device's address. If it actually changed, the
// current connection is torn down and the session reconnects to the new
// address.
func (s *Session) SetIP(newIP string) {
	req := commandRequest{kind: cmdSetIP, newIP: newIP, resultCh: make(chan error, 1)}
	select {
	case s.cmdCh <- req:
		<-req.resultCh
	case <-s.closeCh:
	}
}

// run is the session's background task: it owns the reconnect loop
// around one connection's lifetime at a time.
func (s *Session) run() {
	defer close(s.doneCh)

	for {
		select {
		case <-s.closeCh:
			s.setState(StateClosed)
			s.notify(map[string]any{"available": false})
			return
		default:
		}

		conn, rawConn, err := s.connect()
		if err != nil {
			connErr := fmt.Errorf("%w: %v", ErrConnectError, err)
			if s.log != nil {
				s.log.Warnf("connect failed: %v", connErr)
			}
			s.notify(map[string]any{"available": false, "error": connErr})
			if s.sleepOrClosed(s.reconnectBackoff.NextBackOff()) {
				s.setState(StateClosed)
				return
			}
			continue
		}

		stopWatch := s.watchClose(rawConn)

		s.setState(StateAuthenticating)
		if s.desc.Protocol == 3 {
			_, err := handshake.Perform(conn, handshake.Credentials{Token: s.desc.Token, Key: s.desc.Key})
			if err != nil {
				authErr := fmt.Errorf("%w: %v", ErrAuthError, err)
				if s.log != nil {
					s.log.Errorf("handshake failed: %v", authErr)
				}
				stopWatch()
				rawConn.Close()
				s.setState(StateClosed)
				s.notify(map[string]any{"available": false, "error": authErr})
				return
			}
		}

		s.setState(StateReady)
		s.notify(map[string]any{"available": true})

		reason := s.serve(conn, rawConn)
		stopWatch()
		rawConn.Close()

		if reason == nil {
			s.setState(StateClosed)
			s.notify(map[string]any{"available": false})
			return
		}

		if s.log != nil {
			s.log.Warnf("connection dropped: %v", reason)
		}
		s.setState(StateReconnecting)
		s.notify(map[string]any{"available": false})
		if s.sleepOrClosed(s.reconnectBackoff.NextBackOff()) {
			s.setState(StateClosed)
			return
		}
	}
}

func (s *Session) sleepOrClosed(d time.Duration) bool {
	select {
	case <-time.After(d):
		return false
	case <-s.closeCh:
		return true
	}
}

// watchClose closes c if the session is closed while the returned stop
// function hasn't been called yet, so that a blocking handshake or
// socket read unblocks promptly on Close. A dial in progress is
// cancelled by connect itself.
func (s *Session) watchClose(c io.Closer) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-s.closeCh:
			c.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (s *Session) connect() (*transport.Conn, net.Conn, error) {
	s.setState(StateConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	dialDone := make(chan struct{})
	defer close(dialDone)
	go func() {
		select {
		case <-s.closeCh:
			cancel()
		case <-dialDone:
		}
	}()

	addr := fmt.Sprintf("%s:%d", s.desc.IP, s.desc.Port)
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	return transport.NewConn(nc, s.loggerFactory), nc, nil
}

// serve drives one established connection until it fails, the user
// closes the session, or a SetIP call requires reconnecting. A nil
// return means the session was closed by the user.
func (s *Session) serve(conn *transport.Conn, rawConn net.Conn) error {
	events := make(chan inboundEvent, 16)
	stop := make(chan struct{})
	defer close(stop)

	if s.desc.Protocol == 3 {
		go s.readLoopV3(conn, events, stop)
	} else {
		go s.readLoopV2(rawConn, events, stop)
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	idleTicks := 0
	sinceRefresh := time.Duration(0)
	sinceHeartbeat := time.Duration(0)

	for {
		select {
		case <-s.closeCh:
			return nil

		case ev := <-events:
			ok, fatal := s.handleEvent(ev)
			if fatal != nil {
				return fatal
			}
			if ok {
				idleTicks = 0
			}

		case cmd := <-s.cmdCh:
			if reason := s.dispatchCommand(conn, rawConn, cmd, events); reason != nil {
				return reason
			}

		case <-ticker.C:
			idleTicks++
			sinceRefresh += tickInterval
			sinceHeartbeat += tickInterval

			if idleTicks >= heartbeatIdleMax {
				return ErrHeartbeatTimeout
			}
			if sinceHeartbeat >= s.desc.HeartbeatInterval {
				sinceHeartbeat = 0
				if err := s.sendHeartbeat(conn, rawConn); err != nil && s.log != nil {
					s.log.Warnf("heartbeat send failed: %v", err)
				}
			}
			if sinceRefresh >= s.desc.RefreshInterval {
				sinceRefresh = 0
				if err := s.sendRefreshQueries(conn, rawConn, s.pendingQueries()); err != nil && s.log != nil {
					s.log.Warnf("periodic refresh send failed: %v", err)
				}
			}
		}
	}
}

// dispatchCommand executes one user-facing command. A non-nil return
// value means the connection must be torn down and the session should
// reconnect (used for propagating a fatal decode error observed while
// waiting on a refresh response). A SetIP that changes the address
// returns nil and closes the raw connection instead, so the reader's
// resulting error ends serve and the session redials the new address.
func (s *Session) dispatchCommand(conn *transport.Conn, rawConn net.Conn, cmd commandRequest, events chan inboundEvent) error {
	switch cmd.kind {
	case cmdSend:
		cmd.resultCh <- s.transmit(conn, rawConn, s.buildApplianceMessage(cmd.msgType, cmd.body))
		return nil

	case cmdSetIP:
		changed := cmd.newIP != "" && cmd.newIP != s.desc.IP
		if changed {
			s.desc.IP = cmd.newIP
		}
		cmd.resultCh <- nil
		if changed {
			rawConn.Close()
		}
		return nil

	case cmdRefresh:
		queries := s.pendingQueries()
		if len(queries) == 0 {
			cmd.resultCh <- ErrRefreshFailed
			return nil
		}
		if err := s.sendRefreshQueries(conn, rawConn, queries); err != nil {
			cmd.resultCh <- err
			return nil
		}
		if !cmd.wait {
			cmd.resultCh <- nil
			return nil
		}
		return s.waitForResponse(queries, events, cmd.resultCh)
	}
	return nil
}

func (s *Session) waitForResponse(queries []*appmsg.Message, events chan inboundEvent, resultCh chan<- error) error {
	timeout := time.NewTimer(refreshWaitLimit)
	defer timeout.Stop()

	for {
		select {
		case ev := <-events:
			ok, fatal := s.handleEvent(ev)
			if fatal != nil {
				resultCh <- fatal
				return fatal
			}
			if ok {
				resultCh <- nil
				return nil
			}
		case <-timeout.C:
			s.markQueriesUnsupported(queries)
			resultCh <- ErrResponseTimeout
			return nil
		case <-s.closeCh:
			resultCh <- ErrClosed
			return nil
		}
	}
}

// handleEvent processes one inbound event. ok reports whether a status
// update parsed successfully (used both to reset the idle-tick counter
// and to satisfy a pending refresh_status(wait=true)); a non-nil err is
// always fatal for the connection.
func (s *Session) handleEvent(ev inboundEvent) (ok bool, err error) {
	if ev.err != nil {
		return false, classifyErr(ev.err)
	}

	if ev.packet != nil {
		return s.handleInnerPacketBody(ev.packet.Body)
	}

	if len(ev.frames) == 0 {
		return false, nil
	}

	parsedAny := false
	for _, f := range ev.frames {
		if f.IsError {
			return false, errors.New("device: ERROR frame received from device")
		}
		inner, err := message.Decode(f.Payload)
		if err != nil {
			return false, classifyErr(err)
		}
		ok, err := s.handleInnerPacketBody(inner.Body)
		if err != nil {
			return false, err
		}
		parsedAny = parsedAny || ok
	}
	return parsedAny, nil
}

func (s *Session) handleInnerPacketBody(body []byte) (bool, error) {
	parsed, err := appmsg.Decode(body)
	if err != nil {
		return false, classifyErr(err)
	}

	if parsed.Type == appmsg.MessageTypeQueryAppliance {
		if s.log != nil {
			s.log.Debugf("device reports protocol version %d", parsed.ProtocolVersion)
		}
		return true, nil
	}

	status := s.adapter.ProcessMessage(parsed.Payload)
	if status == nil {
		status = map[string]any{}
	}
	if _, present := status["available"]; !present {
		status["available"] = true
	}
	s.notify(status)
	return true, nil
}

func classifyErr(err error) error {
	switch {
	case errors.Is(err, transport.ErrBadMagic), errors.Is(err, transport.ErrImpossibleLength):
		return ErrFramingError
	case errors.Is(err, transport.ErrIntegrity),
		errors.Is(err, message.ErrBadTag),
		errors.Is(err, message.ErrBadMagic),
		errors.Is(err, appmsg.ErrBadChecksum):
		return ErrIntegrityError
	default:
		return err
	}
}

func (s *Session) readLoopV3(conn *transport.Conn, out chan<- inboundEvent, stop <-chan struct{}) {
	for {
		frames, err := conn.Recv()
		select {
		case out <- inboundEvent{frames: frames, err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) readLoopV2(rawConn net.Conn, out chan<- inboundEvent, stop <-chan struct{}) {
	var buf []byte
	readBuf := make([]byte, 4096)

	for {
		n, err := rawConn.Read(readBuf)
		if err != nil {
			select {
			case out <- inboundEvent{err: err}:
			case <-stop:
			}
			return
		}
		buf = append(buf, readBuf[:n]...)

		for {
			pkt, rest, err := message.DecodeStream(buf)
			buf = rest
			if err != nil {
				select {
				case out <- inboundEvent{err: err}:
				case <-stop:
				}
				return
			}
			if pkt == nil {
				break
			}
			select {
			case out <- inboundEvent{packet: pkt}:
			case <-stop:
				return
			}
		}
	}
}

func (s *Session) buildApplianceMessage(msgType appmsg.MessageType, body []byte) *appmsg.Message {
	return &appmsg.Message{
		ApplianceType: s.adapter.ApplianceType(),
		Type:          msgType,
		Payload:       body,
	}
}

func (s *Session) transmit(conn *transport.Conn, rawConn net.Conn, m *appmsg.Message) error {
	pkt := &message.InnerPacket{DeviceID: s.desc.DeviceID, Body: m.Encode()}
	inner, err := pkt.Encode()
	if err != nil {
		return err
	}
	if s.desc.Protocol == 3 {
		return conn.Send(inner, transport.MsgTypeEncryptedRequest)
	}
	_, err = rawConn.Write(inner)
	return err
}

func (s *Session) sendHeartbeat(conn *transport.Conn, rawConn net.Conn) error {
	pkt := &message.InnerPacket{DeviceID: s.desc.DeviceID, Body: []byte{0x00}}
	inner, err := pkt.Encode()
	if err != nil {
		return err
	}
	if s.desc.Protocol == 3 {
		return conn.Send(inner, transport.MsgTypeEncryptedRequest)
	}
	_, err = rawConn.Write(inner)
	return err
}

func (s *Session) pendingQueries() []*appmsg.Message {
	var out []*appmsg.Message

	query := appmsg.NewQueryAppliance(s.adapter.ApplianceType())
	s.mu.Lock()
	skip := s.unsupported[query.Type]
	s.mu.Unlock()
	if !skip {
		out = append(out, query)
	}

	for _, m := range s.adapter.BuildQueries() {
		s.mu.Lock()
		skip := s.unsupported[m.Type]
		s.mu.Unlock()
		if !skip {
			out = append(out, m)
		}
	}
	return out
}

func (s *Session) sendRefreshQueries(conn *transport.Conn, rawConn net.Conn, queries []*appmsg.Message) error {
	for _, q := range queries {
		if err := s.transmit(conn, rawConn, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) markQueriesUnsupported(queries []*appmsg.Message) {
	s.mu.Lock()
	for _, q := range queries {
		s.unsupported[q.Type] = true
	}
	s.mu.Unlock()
}
