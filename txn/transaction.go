// Package txn defines the Transaction, the unit of message passing
// between Connections and the services that own them, and the bounded
// queues it travels through.
package txn

// Kind tags a Transaction with the event it carries.
type Kind int

const (
	// NewSocket signals a freshly admitted connection. Data is the
	// peer address (string).
	NewSocket Kind = iota

	// Data carries a decoded text payload. Data is a string (the
	// server's canonical text form, conventionally UTF-8).
	Data

	// Close signals that the connection (or the service) is gone. Data
	// is empty. Close is always the last transaction a service will see
	// for a given connection, and the last one written from a
	// connection's outbound queue: the connection is closed when it is
	// dequeued, and nothing queued after it is sent.
	Close
)

// String renders a Kind for logging.
func (k Kind) String() string {
	switch k {
	case NewSocket:
		return "NEWSOCKET"
	case Data:
		return "DATA"
	case Close:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// Transaction is the tagged record routed by the switchboard between a
// Connection's queues and a service's queues.
type Transaction struct {
	Kind         Kind
	ConnectionID uint64
	Data         string
}

// NewSocketTxn builds a NewSocket transaction for conn carrying its peer
// address.
func NewSocketTxn(connID uint64, addr string) Transaction {
	return Transaction{Kind: NewSocket, ConnectionID: connID, Data: addr}
}

// DataTxn builds a Data transaction carrying payload.
func DataTxn(connID uint64, payload string) Transaction {
	return Transaction{Kind: Data, ConnectionID: connID, Data: payload}
}

// CloseTxn builds a terminal Close transaction for conn.
func CloseTxn(connID uint64) Transaction {
	return Transaction{Kind: Close, ConnectionID: connID}
}
