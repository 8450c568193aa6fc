// Package manager implements the single supervisor that multiplexes
// I/O across every live Connection and shuttles Transactions between
// per-connection queues and per-service queues (the "switchboard").
package manager

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coregx/wsbus/connio"
	"github.com/coregx/wsbus/directory"
	"github.com/coregx/wsbus/frame"
	"github.com/coregx/wsbus/txn"
)

// Default sweep intervals: the I/O loop polls every connection roughly
// every 25ms; the switchboard loop drains queues roughly every 5ms.
// Both are short fixed sleeps rather than a busy spin.
const (
	defaultIOInterval        = 25 * time.Millisecond
	defaultSwitchInterval    = 5 * time.Millisecond
	maxReadChunk             = 4096
	nonBlockingProbeDeadline = 1 * time.Millisecond
)

// Manager owns the full set of live Connections and drives both the
// I/O loop and the switchboard loop. Run starts the two loops as
// separate goroutines.
type Manager struct {
	dir *directory.Directory
	log zerolog.Logger

	ioInterval     time.Duration
	switchInterval time.Duration

	mu    sync.Mutex
	conns map[uint64]*connio.Connection

	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// New returns a Manager routing through dir and logging via log.
func New(dir *directory.Directory, log zerolog.Logger) *Manager {
	return &Manager{
		dir:            dir,
		log:            log,
		ioInterval:     defaultIOInterval,
		switchInterval: defaultSwitchInterval,
		conns:          make(map[uint64]*connio.Connection),
		shutdown:       make(chan struct{}),
	}
}

// Attach registers c as a live Connection and enqueues the NewSocket
// transaction announcing it to its bound service.
func (m *Manager) Attach(c *connio.Connection) {
	m.mu.Lock()
	m.conns[c.ID()] = c
	m.mu.Unlock()

	if svc := c.Service(); svc != nil {
		if err := svc.Inbound.TryPut(txn.NewSocketTxn(c.ID(), c.Address())); err != nil {
			m.log.Warn().Uint64("conn", c.ID()).Err(err).Msg("dropped NEWSOCKET: service inbound queue full")
		}
	}
}

// Run starts the I/O loop and the switchboard loop and blocks until
// Shutdown is called.
func (m *Manager) Run() {
	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.ioLoop()
	}()
	go func() {
		defer m.wg.Done()
		m.switchboardLoop()
	}()
	m.wg.Wait()
}

// Shutdown signals both loops to stop after their current sweep;
// Run returns once they have.
func (m *Manager) Shutdown() {
	m.once.Do(func() { close(m.shutdown) })
}

// CloseAll closes every tracked connection's socket and empties the
// active set. Called during process shutdown, after the loops have
// stopped.
func (m *Manager) CloseAll() {
	for _, c := range m.snapshotConns() {
		_ = c.Close()
	}
	m.mu.Lock()
	m.conns = make(map[uint64]*connio.Connection)
	m.mu.Unlock()
}

// ConnectionCount reports the number of connections currently tracked
// by the Manager (including ones pending removal on the next sweep).
func (m *Manager) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

func (m *Manager) snapshotConns() []*connio.Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*connio.Connection, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c)
	}
	return out
}

func (m *Manager) removeConn(id uint64) {
	m.mu.Lock()
	delete(m.conns, id)
	m.mu.Unlock()
}

// ioLoop is the periodic supervisor over every live Connection's
// socket.
func (m *Manager) ioLoop() {
	ticker := time.NewTicker(m.ioInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.shutdown:
			return
		case <-ticker.C:
			for _, c := range m.snapshotConns() {
				m.serviceConnIO(c)
			}
		}
	}
}

// serviceConnIO performs one I/O sweep pass over a single connection:
// enqueue a synthetic Close if it is already marked not-open, otherwise
// probe for readability/writability and make progress on whichever is
// ready.
func (m *Manager) serviceConnIO(c *connio.Connection) {
	if !c.IsOpen() {
		if err := c.Inbound().TryPut(txn.CloseTxn(c.ID())); err != nil {
			m.log.Warn().Uint64("conn", c.ID()).Msg("dropped synthetic CLOSE: inbound queue full")
		}
		return
	}

	m.readStep(c)
	if c.IsOpen() {
		m.writeStep(c)
	}
}

// readStep attempts a non-blocking read and feeds any bytes received
// into the connection's resumable decoder.
func (m *Manager) readStep(c *connio.Connection) {
	sock := c.Socket()
	_ = sock.SetReadDeadline(time.Now().Add(nonBlockingProbeDeadline))

	buf := make([]byte, maxReadChunk)
	n, err := sock.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return // not readable this pass
		}
		if err == io.EOF {
			m.closeConn(c, "peer closed")
			return
		}
		m.closeConn(c, "read error")
		return
	}
	if n == 0 {
		m.closeConn(c, "zero-byte read")
		return
	}

	m.feedBytes(c, buf[:n])
}

// feedBytes drives the connection's ReadProgress across data, emitting
// one Data transaction per completed frame onto the connection's
// inbound queue. Any number of frames may complete in one call; a
// partial tail remains buffered in the ReadProgress.
func (m *Manager) feedBytes(c *connio.Connection, data []byte) {
	progress := c.ReadProgress()

	for len(data) > 0 {
		rest, err := progress.Receive(data)
		if err != nil {
			m.log.Warn().Uint64("conn", c.ID()).Err(err).Msg("codec error, closing connection")
			m.closeConn(c, "codec error")
			return
		}
		data = rest

		if progress.Done() {
			payload := string(progress.Payload())
			progress.Reset()
			if putErr := c.Inbound().TryPut(txn.DataTxn(c.ID(), payload)); putErr != nil {
				m.log.Warn().Uint64("conn", c.ID()).Msg("dropped DATA: inbound queue full")
			}
		} else {
			// Ran out of input mid-frame; state machine holds its
			// place for the next read.
			break
		}
	}
}

// writeStep attempts a non-blocking write: first draining any unsent
// tail from a previous pass, otherwise dequeuing and encoding the next
// outbound transaction.
func (m *Manager) writeStep(c *connio.Connection) {
	sock := c.Socket()

	if tail := c.WriteTail(); len(tail) > 0 {
		remaining := m.sendBestEffort(c, sock, tail)
		c.SetWriteTail(remaining)
		return
	}

	t, ok := c.Outbound().TryGet()
	if !ok {
		return
	}

	switch t.Kind {
	case txn.Close:
		m.closeConn(c, "service requested close")
	case txn.Data:
		encoded := frame.Encode([]byte(t.Data))
		remaining := m.sendBestEffort(c, sock, encoded)
		c.SetWriteTail(remaining)
	}
}

// sendBestEffort attempts one non-blocking write of data and returns
// whatever portion was not sent (nil if all of it went out).
func (m *Manager) sendBestEffort(c *connio.Connection, sock net.Conn, data []byte) []byte {
	_ = sock.SetWriteDeadline(time.Now().Add(nonBlockingProbeDeadline))
	n, err := sock.Write(data)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return data[n:]
		}
		m.closeConn(c, "write error")
		return nil
	}
	if n == len(data) {
		return nil
	}
	return data[n:]
}

// closeConn tears the connection down: closes the socket and marks it
// not-open so the next I/O sweep enqueues the synthetic inbound Close
// and the switchboard removes it from the active set.
func (m *Manager) closeConn(c *connio.Connection, reason string) {
	if !c.IsOpen() {
		return
	}
	m.log.Debug().Uint64("conn", c.ID()).Str("reason", reason).Msg("closing connection")
	_ = c.Close()
}

// switchboardLoop is the periodic routing pass between connection
// queues and service queues.
func (m *Manager) switchboardLoop() {
	ticker := time.NewTicker(m.switchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.shutdown:
			return
		case <-ticker.C:
			m.routeServiceOutbound()
			m.routeConnInbound()
		}
	}
}

// routeServiceOutbound drains every known service's outbound queue and
// forwards each transaction to its target connection's outbound queue.
func (m *Manager) routeServiceOutbound() {
	for _, svc := range m.dir.All() {
		for _, t := range svc.Outbound.DrainAll() {
			m.mu.Lock()
			target, ok := m.conns[t.ConnectionID]
			m.mu.Unlock()
			if !ok {
				continue // connection already gone; nothing to deliver to
			}
			if err := target.EnqueueOutbound(t); err != nil {
				m.log.Warn().Uint64("conn", t.ConnectionID).Msg("dropped outbound: connection queue full")
			}
		}
	}
}

// routeConnInbound drains every connection's inbound queue and forwards
// each transaction to the service it is bound to. Traffic addressed to
// a service that has since died is discarded and the connection is
// closed; the connection leaves the active set once its Close
// transaction is drained. Close is terminal, anything queued after it
// for the same connection is dropped.
func (m *Manager) routeConnInbound() {
	for _, c := range m.snapshotConns() {
		svc := c.Service()
		dead := svc == nil || !svc.IsAlive()

		if dead && c.IsOpen() {
			m.closeConn(c, "service dead")
		}

		for _, t := range c.Inbound().DrainAll() {
			if dead {
				if t.Kind == txn.Close {
					m.removeConn(c.ID())
					break
				}
				continue
			}
			if err := svc.Inbound.TryPut(t); err != nil {
				m.log.Warn().Uint64("conn", c.ID()).Msg("dropped inbound: service queue full")
			}
			if t.Kind == txn.Close {
				m.removeConn(c.ID())
				break
			}
		}
	}
}
