package workflow

import "errors"

// Domain errors reported synchronously to the caller. Handlers map these
// to HTTP status codes; nothing at this layer retries.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrPreconditionFailed = errors.New("application status does not permit this transition")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
)
