package errors

// Error codes for the messaging contracts. Keep stable; used across adapters and the publisher.
const (
	ErrCodeResolutionFailed       = "mdbclient.resolution_failed"
	ErrCodeSendFailed             = "mdbclient.send_failed"
	ErrCodeInvalidCount           = "mdbclient.invalid_count"
	ErrCodeTransportNotConfigured = "mdbclient.transport_not_configured"
	ErrCodeUnsupportedKind        = "mdbclient.unsupported_kind"
	ErrCodeSerializationFailed    = "mdbclient.serialization_failed"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	// ErrResolutionFailed marks a declared destination that cannot be bound to a live handle.
	ErrResolutionFailed = Code(ErrCodeResolutionFailed)
	// ErrSendFailed marks a transport send that did not hand the message off.
	ErrSendFailed             = Code(ErrCodeSendFailed)
	ErrInvalidCount           = Code(ErrCodeInvalidCount)
	ErrTransportNotConfigured = Code(ErrCodeTransportNotConfigured)
	ErrUnsupportedKind        = Code(ErrCodeUnsupportedKind)
	ErrSerializationFailed    = Code(ErrCodeSerializationFailed)
)
