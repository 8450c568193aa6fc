// Package directory implements the hierarchical, path-addressed
// service registry: services are lazily spawned on first lookup,
// liveness-checked on every subsequent lookup, and recursively shut
// down. It does not implement any particular service's business logic,
// only the contract a worker must satisfy to be hosted here.
package directory

import "github.com/coregx/wsbus/txn"

// Worker is the contract any long-lived service implementation must
// satisfy to be hosted by a Directory.
//
// A Worker must drain its inbound queue promptly, process
// NewSocket/Data/Close transactions per its own business logic, and may
// enqueue any number of Data or Close transactions onto its outbound
// queue. A Worker that panics or exits is not automatically restarted:
// its record is evicted on the next Lookup for its path, and the next
// request for that path spawns a fresh one.
type Worker interface {
	// Start begins running the worker. Start must not block; the
	// worker runs its own goroutine(s) (or, in a process-isolated
	// deployment, its own process).
	Start()

	// RequestShutdown sets the worker's cooperative shutdown flag. The
	// worker is expected to notice this and exit on its own schedule;
	// RequestShutdown itself never blocks.
	RequestShutdown()

	// Join waits for the worker to terminate. Called only after
	// RequestShutdown.
	Join()

	// IsAlive reports whether the worker is still running. Directory
	// calls this on every Lookup to decide whether to evict and
	// respawn.
	IsAlive() bool
}

// Loader spawns a new Worker for the given directory path (the full
// segment list, index sentinel and extension already applied by the
// handshake layer). It returns the worker together with the inbound
// queue (switchboard → worker) and outbound queue (worker → switchboard)
// the switchboard should route through, or an error if the path does
// not correspond to a known service.
type Loader func(path []string) (worker Worker, inbound, outbound *txn.Queue, err error)
