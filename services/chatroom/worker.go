// Package chatroom is a reference Worker implementation: a demo
// service that lets connections pick a display name, create or join a
// named chatroom, and broadcast chat messages to whoever else is in
// it.
package chatroom

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/coregx/wsbus/directory"
	"github.com/coregx/wsbus/txn"
)

// clientState tracks where a connection is in the session state
// machine: it must give a name before it can select or create a
// chatroom, and must have joined one before it can send chat messages.
type clientState int

const (
	stateAwaitName clientState = iota
	stateSelecting
	stateChatting
)

type client struct {
	connID uint64
	name   string
	state  clientState
	room   *room
}

const (
	queueCapacity = 256
	pollInterval  = 2 * time.Millisecond
)

// Worker is one running instance of the chatroom service. A fresh
// Worker (and its queues) is spawned by Loader every time the
// directory needs one, on first lookup of its path and again after a
// prior instance dies, so all of its state starts empty each time.
type Worker struct {
	inbound  *txn.Queue
	outbound *txn.Queue
	log      zerolog.Logger

	rooms   *registry
	clients map[uint64]*client

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	alive    atomic.Bool
}

// NewWorker returns a Worker wired to its own inbound/outbound queues,
// not yet started.
func NewWorker(log zerolog.Logger) (*Worker, *txn.Queue, *txn.Queue) {
	w := &Worker{
		inbound:  txn.NewQueue(queueCapacity),
		outbound: txn.NewQueue(queueCapacity),
		log:      log,
		rooms:    newRegistry(),
		clients:  make(map[uint64]*client),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	return w, w.inbound, w.outbound
}

// Loader returns a directory.Loader that spawns a fresh chatroom
// Worker for every call, regardless of the requested path; this
// service doesn't distinguish sub-paths under where it's mounted.
func Loader(log zerolog.Logger) directory.Loader {
	return func(path []string) (directory.Worker, *txn.Queue, *txn.Queue, error) {
		w, inbound, outbound := NewWorker(log)
		return w, inbound, outbound, nil
	}
}

// Start launches the worker's single processing goroutine. It never
// blocks the caller.
func (w *Worker) Start() {
	w.alive.Store(true)
	go w.run()
}

// RequestShutdown sets the cooperative shutdown flag. Safe to call
// more than once.
func (w *Worker) RequestShutdown() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Join waits for the processing goroutine to notice the shutdown flag
// and exit.
func (w *Worker) Join() {
	<-w.done
}

// IsAlive reports whether the processing goroutine is still running.
func (w *Worker) IsAlive() bool {
	return w.alive.Load()
}

// run drains the inbound queue on a short poll interval (the same
// non-blocking-poll idiom the Manager's loops use) until shutdown is
// requested.
func (w *Worker) run() {
	defer close(w.done)
	defer w.alive.Store(false)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			for _, t := range w.inbound.DrainAll() {
				w.handle(t)
			}
		}
	}
}

func (w *Worker) handle(t txn.Transaction) {
	switch t.Kind {
	case txn.NewSocket:
		w.onNewSocket(t.ConnectionID)
	case txn.Data:
		w.onData(t.ConnectionID, t.Data)
	case txn.Close:
		w.onClose(t.ConnectionID)
	}
}

func (w *Worker) onNewSocket(connID uint64) {
	w.clients[connID] = &client{connID: connID, state: stateAwaitName}
	w.send(connID, queryNameMsg())
}

func (w *Worker) onClose(connID uint64) {
	c, ok := w.clients[connID]
	if !ok {
		return
	}
	if c.room != nil {
		w.leaveRoom(c)
	}
	delete(w.clients, connID)
}

func (w *Worker) onData(connID uint64, payload string) {
	c, ok := w.clients[connID]
	if !ok {
		return
	}

	msg, err := decodeClientMsg(payload)
	if err != nil {
		w.log.Debug().Uint64("conn", connID).Err(err).Msg("dropping malformed chatroom message")
		return
	}

	switch c.state {
	case stateAwaitName:
		if msg.Type == "name" && msg.Name != "" {
			c.name = msg.Name
			c.state = stateSelecting
			return
		}
		w.send(connID, queryNameMsg())

	case stateSelecting, stateChatting:
		switch msg.Type {
		case "join":
			w.joinRoom(c, msg.Chatroom)
		case "create":
			w.createRoom(msg.Chatroom)
		case "message":
			if c.state == stateChatting {
				w.broadcast(c.room, messageEventMsg(c.name, msg.Message))
			}
		}
	}
}

func (w *Worker) joinRoom(c *client, name string) {
	target, ok := w.rooms.get(name)
	if !ok {
		w.send(c.connID, noticeMsg("Chatroom "+name+" not found."))
		return
	}
	if c.room != nil {
		w.leaveRoom(c)
	}

	target.members[c.connID] = c.name
	c.room = target
	c.state = stateChatting

	w.send(c.connID, joinAckMsg(name))
	w.send(c.connID, listingEventMsg(w.rooms.listing()))
	w.broadcast(target, newUserEventMsg(c.name))
	w.broadcastUpdate(target)
}

func (w *Worker) createRoom(name string) {
	if !w.rooms.create(name) {
		return
	}
	for connID, c := range w.clients {
		if c.state == stateSelecting || c.state == stateChatting {
			w.send(connID, newChatroomEventMsg(name))
		}
	}
}

func (w *Worker) leaveRoom(c *client) {
	rm := c.room
	delete(rm.members, c.connID)
	c.room = nil
	c.state = stateSelecting
	w.broadcast(rm, logoffEventMsg(c.name))
	w.broadcastUpdate(rm)
}

func (w *Worker) broadcast(rm *room, payload string) {
	for connID := range rm.members {
		w.send(connID, payload)
	}
}

func (w *Worker) broadcastUpdate(rm *room) {
	w.broadcast(rm, updateRoomEventMsg(rm.name, len(rm.members)))
}

func (w *Worker) send(connID uint64, payload string) {
	if err := w.outbound.TryPut(txn.DataTxn(connID, payload)); err != nil {
		w.log.Warn().Uint64("conn", connID).Msg("dropped chatroom reply: outbound queue full")
	}
}
