package domain

import "errors"

var (
	ErrValidation      = errors.New("invalid request data")
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrTicketNotFound  = errors.New("support ticket not found")
	ErrForbidden       = errors.New("operation not permitted")
	ErrInvalidState    = errors.New("operation not allowed in current status")
	ErrExternalService = errors.New("payment provider request failed")
)

// LedgerError carries a rejection message from the ledger engine. The message
// is safe to surface to the caller verbatim.
type LedgerError struct {
	Message string
}

func (e *LedgerError) Error() string {
	return e.Message
}
