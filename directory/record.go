package directory

import "github.com/coregx/wsbus/txn"

// ServiceRecord is a registered, presumed-live service: its worker
// handle and the pair of queues the switchboard routes through.
// Inbound is what the switchboard writes to (the worker consumes it);
// Outbound is what the worker writes to (the switchboard consumes it).
type ServiceRecord struct {
	Worker   Worker
	Inbound  *txn.Queue
	Outbound *txn.Queue
	Path     string
}

// IsAlive reports the liveness of the record's worker.
func (r *ServiceRecord) IsAlive() bool {
	return r.Worker != nil && r.Worker.IsAlive()
}
