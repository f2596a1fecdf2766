package services

import (
	"time"

	"github.com/foodstream/foodstream/models"
)

// ItemAction is a structural cart mutation requested by a guest.
type ItemAction string

const (
	ActionAdd    ItemAction = "add"
	ActionRemove ItemAction = "remove"
)

// StaleAfter is the idle threshold after which anyone may reclaim a
// table's order regardless of ownership or status.
const StaleAfter = 2 * time.Hour

// ReminderAfter is how long a non-empty basket may sit idle before the
// sweeper nudges the table once.
const ReminderAfter = 5 * time.Minute

// CanModifyItems is the per-status mutation gate for line items.
//
// While the basket is being assembled everything is allowed. Once the
// order is in flight, adding (the re-order / dozakaz path) stays open but
// removal is blocked: the kitchen or bar may already be working on the
// item. Class is taken as input even though food and drink currently gate
// identically; the distinction is a deliberate extension point.
func CanModifyItems(status models.OrderStatus, action ItemAction, class models.ItemClass) bool {
	_ = class

	switch status {
	case models.StatusBasketAssembly:
		return true
	case models.StatusRequiresPayment, models.StatusVerification,
		models.StatusInProgress, models.StatusDelivery:
		return action == ActionAdd
	default:
		// PAYMENT_ERROR and the terminal statuses are frozen.
		return false
	}
}

// IsStale reports whether the order's last activity is older than the
// reclaim threshold.
func IsStale(order *models.Order, now time.Time) bool {
	return now.Sub(order.LastActivity) > StaleAfter
}

// CanGuestReset decides whether the given guest may discard a table's
// active order. It returns the verdict plus whether the staleness
// override applied; the caller audits the latter.
func CanGuestReset(order *models.Order, guestToken string, now time.Time) (allowed bool, stale bool, err error) {
	if IsStale(order, now) {
		return true, true, nil
	}
	if order.Status != models.StatusBasketAssembly {
		return false, false, ErrStageBlocked
	}
	if !order.OwnedBy(guestToken) {
		return false, false, ErrNotOwner
	}
	return true, false, nil
}
