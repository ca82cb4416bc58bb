package transaction

import "errors"

var (
	ErrNotFound           = errors.New("transaction not found")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrEmptyDescription   = errors.New("description is required")
	ErrInvalidSource      = errors.New("unknown revenue source")
	ErrInvalidState       = errors.New("operation not allowed in current transaction state")
	ErrPaymentFailed      = errors.New("payment was declined")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrArtistNotFound     = errors.New("artist not found")
	ErrSourceItemNotFound = errors.New("source item not found")
)
