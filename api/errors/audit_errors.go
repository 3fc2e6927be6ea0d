// api/errors/audit_errors.go
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAuditNotFound       = errors.New("audit not found")
	ErrAuditConflict       = errors.New("audit already exists for this period")
	ErrAuditCompleted      = errors.New("audit is completed and can no longer be modified")
	ErrInvalidTransition   = errors.New("invalid lifecycle transition")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUpstreamUnavailable = errors.New("upstream system unavailable")
	ErrDatabaseOperation   = errors.New("database operation failed")
	ErrInternalServer      = errors.New("internal server error")
	ErrInvalidPagination   = errors.New("invalid pagination parameters")
)

// InvalidTransitionError names the current and requested lifecycle states so
// callers can act on the rejection. It matches ErrInvalidTransition under
// errors.Is.
type InvalidTransitionError struct {
	Current   string
	Requested string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition from %q to %q", e.Current, e.Requested)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
