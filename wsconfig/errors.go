package wsconfig

import "errors"

// ErrConfigNotFound is reported when the ini config file named on the
// command line (or the default "server.config") does not exist. The
// caller prints "ERROR: server.config not found" and exits non-zero;
// this sentinel lets it distinguish that case from any other ini
// parse failure.
var ErrConfigNotFound = errors.New("wsconfig: server.config not found")
