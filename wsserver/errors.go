package wsserver

import "errors"

// ErrBindFailed wraps a listener bind failure; fatal at startup.
var ErrBindFailed = errors.New("wsserver: bind failed")
