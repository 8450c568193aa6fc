package chatroom

import "errors"

// ErrMalformedMessage is logged (never fatal) when a client sends a
// payload that isn't valid JSON or is missing the envelope's "type"
// field. The worker ignores the message and keeps running.
var ErrMalformedMessage = errors.New("chatroom: malformed client message")
