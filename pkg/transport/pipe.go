package transport

import (
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// NetworkCondition configures network behavior simulation on a Pipe's
// DeviceConn endpoint, for tests that need dropped, delayed, or
// duplicated writes without a real socket.
type NetworkCondition struct {
	// DropRate is the probability of dropping a write (0.0 - 1.0).
	DropRate float64

	// DelayMin and DelayMax bound a uniformly distributed write delay.
	DelayMin time.Duration
	DelayMax time.Duration

	// DuplicateRate is the probability of duplicating a write (0.0 - 1.0).
	DuplicateRate float64
}

// Pipe provides a bidirectional in-memory connection pair, built on
// pion's test.Bridge, with optional network condition simulation applied
// to one side's writes. Tests wrap its endpoints with NewConn to exercise
// the frame codec and handshake without a real socket; device.Session
// always dials a real TCP address and does not accept a Pipe.
type Pipe struct {
	bridge *test.Bridge

	mu        sync.RWMutex
	condition NetworkCondition
	rng       *rand.Rand

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPipe creates a pipe and starts delivering packets between its two
// endpoints in the background.
func NewPipe() *Pipe {
	p := &Pipe{
		bridge: test.NewBridge(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		stopCh: make(chan struct{}),
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.bridge.Tick()
			}
		}
	}()

	return p
}

// SetCondition configures network condition simulation, applied to
// writes made on the DeviceConn endpoint only; ClientConn writes are
// delivered unchanged.
func (p *Pipe) SetCondition(cond NetworkCondition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.condition = cond
}

// DeviceConn returns the endpoint standing in for the controller's TCP
// socket to the device. Its writes are subject to the NetworkCondition.
func (p *Pipe) DeviceConn() net.Conn {
	return &conditionedConn{Conn: p.bridge.GetConn0(), pipe: p}
}

// ClientConn returns the other endpoint, standing in for the device's
// end of the connection, used by tests to script device responses.
func (p *Pipe) ClientConn() net.Conn {
	return p.bridge.GetConn1()
}

// Close stops packet delivery and closes both endpoints.
func (p *Pipe) Close() error {
	close(p.stopCh)
	p.wg.Wait()

	err0 := p.bridge.GetConn0().Close()
	err1 := p.bridge.GetConn1().Close()
	if err0 != nil {
		return err0
	}
	return err1
}

// conditionedConn wraps a Pipe endpoint's Write with drop/delay/duplicate
// simulation driven by the owning Pipe's NetworkCondition.
type conditionedConn struct {
	net.Conn
	pipe *Pipe
}

func (c *conditionedConn) Write(b []byte) (int, error) {
	c.pipe.mu.RLock()
	cond := c.pipe.condition
	rng := c.pipe.rng
	c.pipe.mu.RUnlock()

	if cond.DropRate > 0 && rng.Float64() < cond.DropRate {
		return len(b), nil
	}

	if cond.DelayMax > 0 {
		delay := cond.DelayMin
		if cond.DelayMax > cond.DelayMin {
			delay += time.Duration(rng.Int63n(int64(cond.DelayMax - cond.DelayMin)))
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	if cond.DuplicateRate > 0 && rng.Float64() < cond.DuplicateRate {
		if _, err := c.Conn.Write(b); err != nil {
			return 0, err
		}
	}

	return c.Conn.Write(b)
}
