// Package frame implements the resumable text-frame codec for the
// WebSocket switchboard: a byte-at-a-time state machine for decoding
// client-masked RFC 6455 text frames, and a one-shot encoder for the
// server's unmasked replies.
//
// RFC Reference: https://datatracker.ietf.org/doc/html/rfc6455
package frame

import "errors"

// Decode error types. Any of these means the connection that produced
// them must be closed (RFC 6455 Section 7.4.1 gives the protocol-error
// statuses this implementation treats uniformly as fatal for the frame).
var (
	// ErrInvalidType indicates the first frame byte was not 0x81
	// (FIN=1, opcode=TEXT). This codec only ever speaks single-frame
	// text, so anything else is a protocol violation.
	ErrInvalidType = errors.New("frame: first byte must be 0x81 (FIN+TEXT)")

	// ErrUnmasked indicates a client frame arrived without the mask bit
	// set. RFC 6455 Section 5.3: client-to-server frames MUST be masked.
	ErrUnmasked = errors.New("frame: client frame must be masked")
)
