package xmpp

import "errors"

var (
	ErrNotConnected       = errors.New("xmpp: not connected")
	ErrClosed             = errors.New("xmpp: stream closed")
	ErrMalformedUnit      = errors.New("xmpp: malformed unit")
	ErrHandshakeRejected  = errors.New("xmpp: handshake rejected")
	ErrFramerBufferExceed = errors.New("xmpp: receive buffer exceeded")
)
