// api/errors/record_errors.go
package errors

import "errors"

var (
	ErrRecordNotFound    = errors.New("access record not found")
	ErrInvalidRecordData = errors.New("invalid access record data")
	ErrTicketUnavailable = errors.New("ticket tracker unavailable")
)
