package engine

import (
	"errors"
	"fmt"

	goklab "github.com/reoring/goklab"
)

// Sentinel errors. Callers match them with errors.Is; the client wraps them
// with call-site detail.
var (
	ErrNotOnline       = errors.New("engine: not online")
	ErrTicketFailed    = errors.New("engine: ticket failed")
	ErrTicketCancelled = errors.New("engine: ticket cancelled")
	ErrTimeout         = errors.New("engine: timed out waiting for ticket")
	ErrIllegalState    = errors.New("engine: illegal state")
	ErrRemote          = errors.New("engine: unexpected response")
	// ErrIllegalArgument is shared with the geometry codec so that a bad
	// geometry and a bad export request match the same sentinel.
	ErrIllegalArgument = goklab.ErrIllegalArgument
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Method   string
	Endpoint string
	Code     int
	Status   string
	Body     string // truncated response body
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("engine: %s %s: %s", e.Method, e.Endpoint, e.Status)
	}
	return fmt.Sprintf("engine: %s %s: %s: %s", e.Method, e.Endpoint, e.Status, e.Body)
}

// Is maps authentication failures to ErrNotOnline.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotOnline && (e.Code == 401 || e.Code == 403)
}
