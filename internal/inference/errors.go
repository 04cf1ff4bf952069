package inference

import "fmt"

// ParseError means the request body is not well-formed JSON at all. The
// transport layer maps it to a different client status than ValidationError,
// so the two are distinct types rather than one bad-request error.
type ParseError struct {
	Err error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing request body: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError means the body parsed but does not match the contract:
// neither a features nor a contacts key, or a recognized key holding a
// value of the wrong shape.
type ValidationError struct {
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// UnsupportedMediaError means the declared content or accept type is not
// the one supported format.
type UnsupportedMediaError struct {
	MediaType string
}

// Error implements the error interface
func (e *UnsupportedMediaError) Error() string {
	return "unsupported media type: " + e.MediaType
}
