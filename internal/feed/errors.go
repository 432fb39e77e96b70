package feed

import "errors"

// ErrStreamClosed is reported when the peer ends the event stream.
var ErrStreamClosed = errors.New("event stream closed by peer")

// ParseError reports an event payload that is not a Prediction.
// The session stays open; the event is skipped.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "bad event payload: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError reports a failed or lost upstream connection.
// The session is closed when this is delivered.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return "stream error (" + e.URL + "): " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsParseError reports whether err is, or wraps, a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsTransportError reports whether err is, or wraps, a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
