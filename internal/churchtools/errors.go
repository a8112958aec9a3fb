package churchtools

import "fmt"

// TransportError means the request never produced a readable response
// (network unreachable, timeout, truncated body).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cannot reach the booking API: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means a response arrived but did not match the expected
// schema or status.
type ProtocolError struct {
	Detail string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected booking API response: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("unexpected booking API response: %s", e.Detail)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// TimeParseError means a timestamp field in the response could not be
// parsed.
type TimeParseError struct {
	Value string
	Err   error
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("cannot parse booking API timestamp %q: %v", e.Value, e.Err)
}

func (e *TimeParseError) Unwrap() error { return e.Err }
