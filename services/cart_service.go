package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/foodstream/foodstream/events"
	"github.com/foodstream/foodstream/models"
)

// StaffIdentity is the authenticated actor on the staff paths, taken from
// the JWT claims by the controllers.
type StaffIdentity struct {
	UserID       uint
	Role         string
	RestaurantID uint
}

func (s StaffIdentity) actorID() string {
	return fmt.Sprintf("%s:%d", s.Role, s.UserID)
}

// CartService owns the order/cart lifecycle: table resolution, the shared
// cart, submission with the hard inventory check, cancellation and staff
// status changes. All structural mutations are serialized per table.
type CartService struct {
	DB       *gorm.DB
	Notifier events.Notifier
	locks    *tableLocks
}

func NewCartService(db *gorm.DB, notifier events.Notifier) *CartService {
	return &CartService{
		DB:       db,
		Notifier: notifier,
		locks:    newTableLocks(),
	}
}

// ResolveTable maps a public token to a tenant's table. The three failure
// kinds are distinct so the client can tell a bad scan from a foreign or
// retired table.
func (s *CartService) ResolveTable(restaurantID uint, token string) (*models.Table, error) {
	var table models.Table
	if err := s.DB.Where("public_token = ?", token).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if table.RestaurantID != restaurantID {
		return nil, ErrTenantMismatch
	}
	if !table.IsActive {
		return nil, ErrTableInactive
	}
	return &table, nil
}

// GetOrCreateCart returns the table's single non-terminal order, creating
// a fresh basket when none exists. Ownership is first-write-wins: the
// guest who causes creation is recorded as owner and later guests join as
// non-owners. The bool result is whether the caller is the owner.
func (s *CartService) GetOrCreateCart(restaurantID uint, tableToken, guestToken, guestName string) (*models.Order, bool, error) {
	table, err := s.ResolveTable(restaurantID, tableToken)
	if err != nil {
		return nil, false, err
	}

	unlock := s.locks.acquire(table.ID)
	defer unlock()

	order, err := s.activeOrder(s.DB, restaurantID, table.ID)
	if err != nil {
		return nil, false, err
	}
	if order == nil {
		order = newBasket(table, guestToken, guestName)
		if err := s.DB.Create(order).Error; err != nil {
			return nil, false, err
		}
	}

	if err := s.DB.Preload("Items.MenuItem.Categories").First(order, order.ID).Error; err != nil {
		return nil, false, err
	}
	return order, order.OwnedBy(guestToken), nil
}

// UpdateItem applies one add/remove of a single unit to the table's cart,
// gated by the status/actor/class permission matrix and the soft stock
// check. The whole read-modify-write runs in one transaction under the
// table lock.
func (s *CartService) UpdateItem(restaurantID uint, tableToken, guestToken, guestName string, menuItemID uint, action ItemAction) (*models.Order, error) {
	table, err := s.ResolveTable(restaurantID, tableToken)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(table.ID)
	defer unlock()

	var order *models.Order
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		order, err = s.activeOrder(tx, restaurantID, table.ID)
		if err != nil {
			return err
		}
		if order == nil {
			order = newBasket(table, guestToken, guestName)
			if err := tx.Create(order).Error; err != nil {
				return err
			}
		}

		var item models.MenuItem
		if err := tx.First(&item, menuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		if item.RestaurantID != restaurantID {
			return ErrItemNotFound
		}

		if !CanModifyItems(order.Status, action, item.Class) {
			return ErrStageBlocked
		}

		detail := fmt.Sprintf("%s %s", action, item.Name)
		switch action {
		case ActionAdd:
			var row models.OrderItem
			found := true
			if err := tx.Where("order_id = ? AND menu_item_id = ? AND is_paid = ?", order.ID, item.ID, false).
				First(&row).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				found = false
			}

			currentQty := 0
			if found {
				currentQty = row.Quantity
			}
			// Soft check: advisory only, the authoritative gate runs at
			// submit time.
			if item.Stock != nil && (*item.Stock <= 0 || currentQty+1 > *item.Stock) {
				return fmt.Errorf("%s: %w", item.Name, ErrOutOfStock)
			}

			if found {
				row.Quantity++
				row.AddedBy = strPtr(guestName)
				if err := tx.Save(&row).Error; err != nil {
					return err
				}
			} else {
				row = models.OrderItem{
					OrderID:    order.ID,
					MenuItemID: item.ID,
					Quantity:   1,
					AddedBy:    strPtr(guestName),
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
			detail += fmt.Sprintf(" (qty %d)", currentQty+1)

		case ActionRemove:
			var row models.OrderItem
			if err := tx.Where("order_id = ? AND menu_item_id = ?", order.ID, item.ID).
				First(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrItemNotFound
				}
				return err
			}
			if row.Quantity > 1 {
				row.Quantity--
				if err := tx.Save(&row).Error; err != nil {
					return err
				}
				detail += fmt.Sprintf(" (qty %d)", row.Quantity)
			} else {
				if err := tx.Delete(&row).Error; err != nil {
					return err
				}
				detail += " (deleted)"
			}
		}

		if err := s.recalcTotal(tx, order); err != nil {
			return err
		}
		order.LastActivity = time.Now().UTC()
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		return LogAudit(tx, restaurantID, &order.ID, models.ActorGuest, guestToken, AuditCartUpdate, detail)
	})
	if err != nil {
		return nil, err
	}

	s.notifyTable(tableToken, events.EventCartUpdated, map[string]interface{}{"total": order.TotalPrice})
	// In-flight carts ring the staff room loudly; drafts stay quiet.
	staffEvent := events.EventCartUpdated
	if order.Status != models.StatusBasketAssembly {
		staffEvent = events.EventNewOrder
	}
	s.notifyStaff(restaurantID, staffEvent, map[string]interface{}{"order_id": order.ID, "table": table.Number})

	return order, nil
}

// Submit moves the basket to REQUIRES_PAYMENT. Only the owner may submit,
// the cart must be non-empty, and every line item passes the hard stock
// check inside the same transaction that decrements stock: one
// insufficient item aborts the whole submission with nothing decremented.
func (s *CartService) Submit(restaurantID uint, tableToken, guestToken string, phone *string) (*models.Order, error) {
	table, err := s.ResolveTable(restaurantID, tableToken)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(table.ID)
	defer unlock()

	var order models.Order
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Items.MenuItem").
			Where("restaurant_id = ? AND table_id = ? AND status = ?",
				restaurantID, table.ID, models.StatusBasketAssembly).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartEmpty
			}
			return err
		}
		if len(order.Items) == 0 {
			return ErrCartEmpty
		}
		if !order.OwnedBy(guestToken) {
			return ErrNotOwner
		}

		for _, line := range order.Items {
			if err := decrementStock(tx, line.MenuItemID, line.Quantity, line.MenuItem.Name); err != nil {
				return err
			}
		}

		if err := s.recalcTotal(tx, &order); err != nil {
			return err
		}
		order.Status = models.StatusRequiresPayment
		order.PhoneNumber = phone
		order.LastActivity = time.Now().UTC()
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		return LogAudit(tx, restaurantID, &order.ID, models.ActorGuest, guestToken,
			AuditOrderCreated, fmt.Sprintf("total: %.2f", order.TotalPrice))
	})
	if err != nil {
		return nil, err
	}

	s.notifyStaff(restaurantID, events.EventNewOrder, map[string]interface{}{"order_id": order.ID, "table": table.Number})
	s.notifyTable(tableToken, events.EventStatusChange, map[string]interface{}{"status": order.Status})

	return &order, nil
}

// TicketItem is one position of a waiter's POS ticket.
type TicketItem struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1"`
}

// CreateStaffTicket opens an order directly in REQUIRES_PAYMENT on behalf
// of a waiter, decrementing stock with the same hard check as a guest
// submission.
func (s *CartService) CreateStaffTicket(staff StaffIdentity, tableNumber int, items []TicketItem) (*models.Order, error) {
	var table models.Table
	if err := s.DB.Where("restaurant_id = ? AND number = ?", staff.RestaurantID, tableNumber).
		First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	unlock := s.locks.acquire(table.ID)
	defer unlock()

	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order = models.Order{
			RestaurantID: staff.RestaurantID,
			TableID:      &table.ID,
			TableNumber:  &table.Number,
			Status:       models.StatusRequiresPayment,
			WaiterID:     &staff.UserID,
			LastActivity: time.Now().UTC(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, req := range items {
			var item models.MenuItem
			if err := tx.First(&item, req.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			if item.RestaurantID != staff.RestaurantID {
				continue
			}
			if err := decrementStock(tx, item.ID, req.Quantity, item.Name); err != nil {
				return err
			}
			row := models.OrderItem{
				OrderID:    order.ID,
				MenuItemID: item.ID,
				Quantity:   req.Quantity,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		if err := s.recalcTotal(tx, &order); err != nil {
			return err
		}
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		return LogAudit(tx, staff.RestaurantID, &order.ID, models.ActorStaff, staff.actorID(),
			AuditOrderCreated, fmt.Sprintf("pos ticket, table %d, total: %.2f", table.Number, order.TotalPrice))
	})
	if err != nil {
		return nil, err
	}

	s.notifyStaff(staff.RestaurantID, events.EventNewOrder, map[string]interface{}{"order_id": order.ID, "table": table.Number})
	s.notifyTable(table.PublicToken, events.EventStatusChange, map[string]interface{}{"status": order.Status})

	return &order, nil
}

// ResetTable discards the table's active order (subject to the guest
// reset policy) and opens a fresh basket owned by the caller.
func (s *CartService) ResetTable(restaurantID uint, tableToken, guestToken, guestName string) (*models.Order, error) {
	table, err := s.ResolveTable(restaurantID, tableToken)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(table.ID)
	defer unlock()

	var fresh *models.Order
	var canceledID uint
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		old, err := s.activeOrder(tx, restaurantID, table.ID)
		if err != nil {
			return err
		}
		if old != nil {
			allowed, stale, err := CanGuestReset(old, guestToken, time.Now().UTC())
			if !allowed {
				return err
			}
			old.Status = models.StatusCanceled
			if err := tx.Save(old).Error; err != nil {
				return err
			}
			canceledID = old.ID
			if err := LogAudit(tx, restaurantID, &old.ID, models.ActorGuest, guestToken,
				AuditOrderReset, fmt.Sprintf("reset by %s (stale: %t)", guestName, stale)); err != nil {
				return err
			}
		}

		fresh = newBasket(table, guestToken, guestName)
		return tx.Create(fresh).Error
	})
	if err != nil {
		return nil, err
	}

	if canceledID != 0 {
		s.notifyStaff(restaurantID, events.EventStatusChange,
			map[string]interface{}{"order_id": canceledID, "status": models.StatusCanceled})
	}
	return fresh, nil
}

// CancelOrder is the guest-facing cancel. Only the owner may cancel and
// only while the basket is still being assembled, except that an order
// idle past the stale threshold may be canceled by anyone to reclaim the
// table.
func (s *CartService) CancelOrder(orderID uint, guestToken string) error {
	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Table").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.IsTerminal() {
			return ErrOrderTerminal
		}

		if !IsStale(&order, time.Now().UTC()) {
			if order.Status != models.StatusBasketAssembly {
				return ErrStageBlocked
			}
			if !order.OwnedBy(guestToken) {
				return ErrNotOwner
			}
		}

		order.Status = models.StatusCanceled
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		return LogAudit(tx, order.RestaurantID, &order.ID, models.ActorGuest, guestToken,
			AuditStatusChange, "canceled by guest")
	})
	if err != nil {
		return err
	}

	s.notifyStaff(order.RestaurantID, events.EventStatusChange,
		map[string]interface{}{"order_id": order.ID, "status": order.Status})
	if order.Table != nil {
		s.notifyTable(order.Table.PublicToken, events.EventStatusChange,
			map[string]interface{}{"status": order.Status})
	}
	return nil
}

// SetStatus is the staff transition path. The machine trusts staff with
// arbitrary transitions inside their own tenant; every change is audited
// and announced to both the staff room and the table.
func (s *CartService) SetStatus(staff StaffIdentity, orderID uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Table").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.RestaurantID != staff.RestaurantID {
			return ErrForbidden
		}

		old := order.Status
		order.Status = status
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		return LogAudit(tx, staff.RestaurantID, &order.ID, models.ActorStaff, staff.actorID(),
			AuditStatusChange, fmt.Sprintf("%s -> %s", old, status))
	})
	if err != nil {
		return nil, err
	}

	s.notifyStaff(staff.RestaurantID, events.EventStatusChange,
		map[string]interface{}{"order_id": order.ID, "status": order.Status})
	if order.Table != nil {
		s.notifyTable(order.Table.PublicToken, events.EventStatusChange,
			map[string]interface{}{"status": order.Status})
	}
	return &order, nil
}

// StaffResetTable force-cancels whatever order is active on the table.
func (s *CartService) StaffResetTable(staff StaffIdentity, tableID uint) error {
	var table models.Table
	if err := s.DB.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if table.RestaurantID != staff.RestaurantID {
		return ErrForbidden
	}

	unlock := s.locks.acquire(table.ID)
	defer unlock()

	var canceledID uint
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.activeOrder(tx, staff.RestaurantID, table.ID)
		if err != nil || order == nil {
			return err
		}
		order.Status = models.StatusCanceled
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		canceledID = order.ID
		return LogAudit(tx, staff.RestaurantID, &order.ID, models.ActorStaff, staff.actorID(),
			AuditOrderReset, fmt.Sprintf("table %d reset by staff", table.Number))
	})
	if err != nil {
		return err
	}

	if canceledID != 0 {
		s.notifyStaff(staff.RestaurantID, events.EventStatusChange,
			map[string]interface{}{"order_id": canceledID, "status": models.StatusCanceled})
		s.notifyTable(table.PublicToken, events.EventStatusChange,
			map[string]interface{}{"status": models.StatusCanceled})
	}
	return nil
}

// SettleItems marks the given line items as paid; with no ids the whole
// order is settled and the lifecycle completes.
func (s *CartService) SettleItems(staff StaffIdentity, orderID uint, itemIDs []uint) error {
	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.RestaurantID != staff.RestaurantID {
			return ErrForbidden
		}

		if len(itemIDs) > 0 {
			if err := tx.Model(&models.OrderItem{}).
				Where("order_id = ? AND id IN ?", order.ID, itemIDs).
				Update("is_paid", true).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&models.OrderItem{}).
				Where("order_id = ?", order.ID).
				Update("is_paid", true).Error; err != nil {
				return err
			}
			order.Status = models.StatusDelivered
			if err := tx.Save(&order).Error; err != nil {
				return err
			}
		}
		return LogAudit(tx, staff.RestaurantID, &order.ID, models.ActorStaff, staff.actorID(),
			AuditItemsPaid, fmt.Sprintf("items: %d (0 = all)", len(itemIDs)))
	})
	if err != nil {
		return err
	}

	s.notifyStaff(staff.RestaurantID, events.EventStatusChange,
		map[string]interface{}{"order_id": order.ID, "status": order.Status})
	return nil
}

// SetBotActive toggles the AI assistant for one order's chat.
func (s *CartService) SetBotActive(staff StaffIdentity, orderID uint, active bool) error {
	var order models.Order
	if err := s.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if order.RestaurantID != staff.RestaurantID {
		return ErrForbidden
	}
	return s.DB.Model(&order).Update("is_bot_active", active).Error
}

// activeOrder finds the table's single non-terminal order, or nil.
func (s *CartService) activeOrder(tx *gorm.DB, restaurantID, tableID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Where("restaurant_id = ? AND table_id = ? AND status NOT IN ?",
		restaurantID, tableID, models.TerminalStatuses).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// recalcTotal recomputes the order total as quantity x current menu price
// over every line item, paid and unpaid. No price snapshots: a catalog
// price change is reflected immediately.
func (s *CartService) recalcTotal(tx *gorm.DB, order *models.Order) error {
	var items []models.OrderItem
	if err := tx.Preload("MenuItem").Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}
	total := 0.0
	for _, line := range items {
		total += float64(line.Quantity) * line.MenuItem.Price
	}
	order.TotalPrice = total
	return nil
}

func (s *CartService) notifyTable(token, event string, data interface{}) {
	if s.Notifier != nil {
		s.Notifier.EmitTable(token, event, data)
	}
}

func (s *CartService) notifyStaff(restaurantID uint, event string, data interface{}) {
	if s.Notifier != nil {
		s.Notifier.EmitStaff(restaurantID, event, data)
	}
}

// decrementStock is the authoritative check-and-decrement. The condition
// rides in the UPDATE itself so concurrent submits, even from different
// tables, can never drive stock negative. NULL stock means unlimited.
func decrementStock(tx *gorm.DB, menuItemID uint, qty int, name string) error {
	res := tx.Exec(
		"UPDATE menu_items SET stock = stock - ? WHERE id = ? AND stock IS NOT NULL AND stock >= ?",
		qty, menuItemID, qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var unlimited int64
		if err := tx.Model(&models.MenuItem{}).
			Where("id = ? AND stock IS NULL", menuItemID).
			Count(&unlimited).Error; err != nil {
			return err
		}
		if unlimited == 0 {
			return fmt.Errorf("%s: %w", name, ErrOutOfStock)
		}
	}
	return nil
}

func newBasket(table *models.Table, guestToken, guestName string) *models.Order {
	return &models.Order{
		RestaurantID: table.RestaurantID,
		TableID:      &table.ID,
		TableNumber:  &table.Number,
		Status:       models.StatusBasketAssembly,
		IsBotActive:  true,
		OwnerToken:   strPtr(guestToken),
		OwnerName:    strPtr(guestName),
		LastActivity: time.Now().UTC(),
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
