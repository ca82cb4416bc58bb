package reward

import "errors"

var (
	ErrInvalidAmount = errors.New("invalid reward amount")
	ErrInternal      = errors.New("reward storage error")
)
