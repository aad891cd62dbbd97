package drive

import (
	"fmt"

	"quark/internal/services"
)

// ErrorKind classifies a RemoteError.
type ErrorKind string

const (
	// KindTransport marks a non-success HTTP response or a network failure.
	KindTransport ErrorKind = "transport"
	// KindBusiness marks a logical failure code embedded in an otherwise
	// successful response.
	KindBusiness ErrorKind = "business"
)

// RemoteError is a failure from a single drive call, isolated to the item or
// operation that triggered it.
type RemoteError struct {
	Kind       ErrorKind
	Op         string
	HTTPStatus int
	Code       int
	Message    string
	Cause      error
}

func (e *RemoteError) Error() string {
	switch e.Kind {
	case KindBusiness:
		return fmt.Sprintf("drive %s: business error code %d: %s", e.Op, e.Code, e.Message)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("drive %s: %v", e.Op, e.Cause)
		}
		return fmt.Sprintf("drive %s: status %d: %s", e.Op, e.HTTPStatus, e.Message)
	}
}

// Unwrap maps the error onto the shared sentinel taxonomy so callers can use
// errors.Is without importing drive internals.
func (e *RemoteError) Unwrap() error {
	if e.Kind == KindBusiness {
		return services.ErrBusiness
	}
	return services.ErrTransport
}
