// Package connio owns per-connection state: the accepted socket, its
// peer address, open/closed status, incremental read/write progress,
// and the bounded inbound/outbound transaction queues that decouple a
// connection's lifecycle from its service's.
package connio

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/coregx/wsbus/directory"
	"github.com/coregx/wsbus/frame"
	"github.com/coregx/wsbus/txn"
)

// defaultQueueCapacity bounds both the inbound and outbound queue of
// every Connection. On a full queue the newest transaction is dropped.
const defaultQueueCapacity = 256

// nextID is the process-wide monotonically increasing Connection id
// counter. Ids are never reused.
var nextID uint64

// Connection is one accepted, upgraded WebSocket session bound to a
// single service for its lifetime. It is created at handshake
// completion and mutated only by the Manager (I/O progress, close) and
// by the owning service (enqueuing outbound transactions).
type Connection struct {
	id     uint64
	addr   string
	socket net.Conn

	// service is the record this connection was bound to at admission
	// time, live at that moment. It is never reassigned; if the service
	// later dies, the switchboard notices via service.IsAlive() and
	// drops traffic rather than re-resolving the path.
	service *directory.ServiceRecord

	mu   sync.Mutex
	open bool

	// read is the resumable decode state for this connection's inbound
	// byte stream.
	read *frame.ReadProgress

	// writeTail is the unsent remainder of the frame currently being
	// written, or nil when nothing is in flight.
	writeTail []byte

	inbound  *txn.Queue
	outbound *txn.Queue
}

// New creates a Connection bound to service, wrapping an already
// accepted socket. It assigns the next process-unique id.
func New(socket net.Conn, addr string, service *directory.ServiceRecord) *Connection {
	return &Connection{
		id:       atomic.AddUint64(&nextID, 1),
		addr:     addr,
		socket:   socket,
		service:  service,
		open:     true,
		read:     frame.NewReadProgress(),
		inbound:  txn.NewQueue(defaultQueueCapacity),
		outbound: txn.NewQueue(defaultQueueCapacity),
	}
}

// ID returns the connection's process-unique id.
func (c *Connection) ID() uint64 { return c.id }

// Address returns the peer's address as captured at accept time.
func (c *Connection) Address() string { return c.addr }

// Service returns the service record this connection was bound to at
// admission time.
func (c *Connection) Service() *directory.ServiceRecord { return c.service }

// Socket exposes the underlying net.Conn for the Manager's I/O loop.
func (c *Connection) Socket() net.Conn { return c.socket }

// IsOpen reports whether the connection is still considered live.
func (c *Connection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Close is idempotent: it marks the connection closed, shuts down the
// socket for read and write, and closes it. Any pending outbound queue
// items are discarded by construction (nothing further is ever dequeued
// from a closed connection's outbound queue).
func (c *Connection) Close() error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return nil
	}
	c.open = false
	c.mu.Unlock()

	if tc, ok := c.socket.(interface{ CloseWrite() error }); ok {
		_ = tc.CloseWrite()
	}
	return c.socket.Close()
}

// ReadProgress exposes the decode state machine for the Manager's I/O
// loop to feed bytes into.
func (c *Connection) ReadProgress() *frame.ReadProgress { return c.read }

// WriteTail returns the unsent tail of the frame currently being
// written, or nil if nothing is in flight.
func (c *Connection) WriteTail() []byte { return c.writeTail }

// SetWriteTail records the unsent remainder after a partial write.
func (c *Connection) SetWriteTail(tail []byte) { c.writeTail = tail }

// Inbound returns the queue the Manager's I/O loop pushes decoded
// payloads onto, and the switchboard loop drains to forward to the
// owning service.
func (c *Connection) Inbound() *txn.Queue { return c.inbound }

// Outbound returns the queue the owning service pushes transactions
// onto, and the Manager's I/O loop drains to write to the socket.
func (c *Connection) Outbound() *txn.Queue { return c.outbound }

// EnqueueOutbound is the contract a service uses to send a transaction
// back down this connection. A full queue drops the transaction and
// reports ErrQueueFull; it does not block and does not close the
// connection.
func (c *Connection) EnqueueOutbound(t txn.Transaction) error {
	return c.outbound.TryPut(t)
}
