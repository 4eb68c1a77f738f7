package remote

import "fmt"

// TransportError means the remote call did not complete at all
// (connection refused, timeout, DNS failure). The response, if any,
// never reached us.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError means the remote call completed but the response carried an
// error payload. The tracker reports failures through an "error" field
// in the JSON body, sometimes alongside a 200 status, so both the
// transport status and the body field are checked.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tracker error (status %d): %s", e.Status, e.Message)
}
