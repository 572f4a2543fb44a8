package custody

import "errors"

// ErrNotOwner is returned when a non-owner attempts an owner-only operation.
var ErrNotOwner = errors.New("caller is not the owner")

// Authorizer decides whether a caller may perform owner-only operations.
type Authorizer interface {
	IsOwner(caller string) bool
}

// SingleOwner authorizes exactly one caller identity.
type SingleOwner string

func (o SingleOwner) IsOwner(caller string) bool {
	return o != "" && caller == string(o)
}
