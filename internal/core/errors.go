package core

import "errors"

// Error codes surfaced to clients over the protocol.
const (
	ErrCodeAuthRejected     = "auth_rejected"
	ErrCodeMalformedMessage = "malformed_message"
	ErrCodePersistence      = "persistence_error"
	ErrCodeUnknownIdentity  = "unknown_identity"
	ErrCodeInternal         = "internal_error"
)

var (
	// ErrMalformedFrame marks an inbound frame that could not be decoded
	// into a chat message. Such frames are dropped without closing the
	// connection.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrPersistence marks a failure to persist a message. Delivery of
	// that message is aborted.
	ErrPersistence = errors.New("persistence failure")

	// ErrClientGone is returned by Client.Send once the client is closed.
	ErrClientGone = errors.New("client gone")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}
