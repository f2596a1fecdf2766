package models

// OrderStatus is the lifecycle stage of an order. The two terminal
// statuses (canceled, delivered) free the table for a new order.
type OrderStatus string

const (
	StatusBasketAssembly  OrderStatus = "BASKET_ASSEMBLY"
	StatusRequiresPayment OrderStatus = "REQUIRES_PAYMENT"
	StatusVerification    OrderStatus = "VERIFICATION"
	StatusPaymentError    OrderStatus = "PAYMENT_ERROR"
	StatusInProgress      OrderStatus = "IN_PROGRESS"
	StatusDelivery        OrderStatus = "DELIVERY"
	StatusDelivered       OrderStatus = "SUCCESSFULLY_DELIVERED"
	StatusCanceled        OrderStatus = "CANCELED"
)

// AllStatuses in lifecycle order, used for validation of staff updates.
var AllStatuses = []OrderStatus{
	StatusBasketAssembly,
	StatusRequiresPayment,
	StatusVerification,
	StatusPaymentError,
	StatusInProgress,
	StatusDelivery,
	StatusDelivered,
	StatusCanceled,
}

// TerminalStatuses are excluded when resolving a table's active order.
var TerminalStatuses = []OrderStatus{StatusCanceled, StatusDelivered}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusCanceled || s == StatusDelivered
}

func (s OrderStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ItemClass classifies a menu item for the mutation permission rules.
// Food and drink currently share the same gates, but the class is carried
// explicitly so the matrix can diverge per class later.
type ItemClass string

const (
	ClassFood  ItemClass = "food"
	ClassDrink ItemClass = "drink"
)

func (c ItemClass) Valid() bool {
	return c == ClassFood || c == ClassDrink
}
