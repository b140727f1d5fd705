package auth

import "errors"

var (
	// ErrUnauthenticated covers missing, malformed, expired or revoked
	// credentials of any kind.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrForbidden means the caller's role is not on the route's allow-list.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrAccessDenied means the role may call the endpoint but the specific
	// resource is outside the caller's tenant scope.
	ErrAccessDenied = errors.New("auth: access denied")
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")
)
