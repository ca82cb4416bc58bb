package ticket

import "errors"

var (
	ErrNotFound      = errors.New("ticket not found")
	ErrEventNotFound = errors.New("event not found")
	ErrEventNotPaid  = errors.New("event does not require a ticket")
	ErrForbidden     = errors.New("actor not allowed to change this ticket")
	ErrInvalidState  = errors.New("operation not allowed in current ticket state")
)
