// api/errors/rbac_errors.go
package errors

import "errors"

var (
	ErrRoleNotFound    = errors.New("role assignment not found")
	ErrInvalidRoleData = errors.New("invalid role data")
)
