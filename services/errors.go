package services

import "errors"

// Stable domain error kinds. Controllers map these to HTTP codes; the
// identity of the error is part of the API contract, the message is not.
var (
	ErrInvalidToken   = errors.New("invalid table token")
	ErrTenantMismatch = errors.New("table belongs to another restaurant")
	ErrTableInactive  = errors.New("table is deactivated")
	ErrCartEmpty      = errors.New("cart is empty")
	ErrNotOwner       = errors.New("only the order owner may do this")
	ErrStageBlocked   = errors.New("changes are not allowed at this stage, ask the staff")
	ErrOutOfStock     = errors.New("item is out of stock")
	ErrOrderTerminal  = errors.New("order is already finished")
	ErrOrderNotFound  = errors.New("order not found")
	ErrItemNotFound   = errors.New("item not found")
	ErrInvalidStatus  = errors.New("unknown order status")
	ErrForbidden      = errors.New("forbidden")

	// ErrUpstreamUnavailable is returned by Assistant implementations when
	// the model call fails. Callers degrade to a fixed apology and never
	// surface this to the guest as a hard error.
	ErrUpstreamUnavailable = errors.New("assistant temporarily unavailable")
)

// Kind returns the stable machine-readable name for a domain error, or ""
// for errors outside the taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return "InvalidToken"
	case errors.Is(err, ErrTenantMismatch):
		return "TenantMismatch"
	case errors.Is(err, ErrTableInactive):
		return "TableInactive"
	case errors.Is(err, ErrCartEmpty):
		return "CartEmpty"
	case errors.Is(err, ErrNotOwner):
		return "NotOwner"
	case errors.Is(err, ErrStageBlocked):
		return "StageBlocked"
	case errors.Is(err, ErrOutOfStock):
		return "OutOfStock"
	case errors.Is(err, ErrOrderTerminal):
		return "OrderAlreadyTerminal"
	case errors.Is(err, ErrInvalidStatus):
		return "InvalidStatus"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "UpstreamUnavailable"
	}
	return ""
}
