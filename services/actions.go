package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/foodstream/foodstream/events"
	"github.com/foodstream/foodstream/models"
)

// Action is one structured cart mutation proposed by the assistant. The
// set of variants is closed: decoding rejects anything else before it can
// touch an order.
type Action interface {
	actionTag() string
}

type AddItemAction struct {
	Name     string
	Quantity int
}

type RemoveItemAction struct {
	Name string
}

type UpdateQuantityAction struct {
	Name     string
	Quantity int
}

type ClearCartAction struct{}

func (AddItemAction) actionTag() string        { return "add_item" }
func (RemoveItemAction) actionTag() string     { return "remove_item" }
func (UpdateQuantityAction) actionTag() string { return "update_quantity" }
func (ClearCartAction) actionTag() string      { return "clear_cart" }

var errUnknownAction = errors.New("unknown action type")

type rawAction struct {
	Type     string `json:"type"`
	ItemName string `json:"item_name"`
	Quantity *int   `json:"quantity"`
}

// DecodeActions parses the assistant's action array. An unknown tag fails
// the whole decode; a malformed payload for a known tag likewise. Nothing
// partial comes back.
func DecodeActions(data []byte) ([]Action, error) {
	var raws []rawAction
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}

	actions := make([]Action, 0, len(raws))
	for _, r := range raws {
		switch r.Type {
		case "add_item":
			qty := 1
			if r.Quantity != nil {
				qty = *r.Quantity
			}
			if r.ItemName == "" || qty < 1 {
				return nil, fmt.Errorf("add_item: bad payload")
			}
			actions = append(actions, AddItemAction{Name: r.ItemName, Quantity: qty})
		case "remove_item":
			if r.ItemName == "" {
				return nil, fmt.Errorf("remove_item: bad payload")
			}
			actions = append(actions, RemoveItemAction{Name: r.ItemName})
		case "update_quantity":
			if r.ItemName == "" || r.Quantity == nil {
				return nil, fmt.Errorf("update_quantity: bad payload")
			}
			actions = append(actions, UpdateQuantityAction{Name: r.ItemName, Quantity: *r.Quantity})
		case "clear_cart":
			actions = append(actions, ClearCartAction{})
		default:
			return nil, fmt.Errorf("%w: %q", errUnknownAction, r.Type)
		}
	}
	return actions, nil
}

// ApplyActions executes the assistant's proposals against an order. Name
// resolution against the tenant menu is case-insensitive, exact match
// first then substring; an unresolved name skips that action rather than
// failing the batch. The permission matrix and stock rules apply exactly
// as they do to a guest. Applied mutations are audited as AI actions and
// the count of applied actions is returned.
func (s *CartService) ApplyActions(order *models.Order, actions []Action) (int, error) {
	if len(actions) == 0 {
		return 0, nil
	}
	if order.TableID == nil {
		return 0, ErrOrderNotFound
	}

	unlock := s.locks.acquire(*order.TableID)
	defer unlock()

	applied := 0
	var details []string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var menu []models.MenuItem
		if err := tx.Where("restaurant_id = ? AND is_active = ?", order.RestaurantID, true).
			Find(&menu).Error; err != nil {
			return err
		}

		for _, a := range actions {
			switch act := a.(type) {
			case AddItemAction:
				item := resolveMenuItem(menu, act.Name)
				if item == nil {
					continue
				}
				if !CanModifyItems(order.Status, ActionAdd, item.Class) {
					continue
				}
				if err := addLine(tx, order, item, act.Quantity); err != nil {
					if errors.Is(err, ErrOutOfStock) {
						continue
					}
					return err
				}
				applied++
				details = append(details, fmt.Sprintf("add %s x%d", item.Name, act.Quantity))

			case RemoveItemAction:
				item := resolveMenuItem(menu, act.Name)
				if item == nil {
					continue
				}
				if !CanModifyItems(order.Status, ActionRemove, item.Class) {
					continue
				}
				if err := tx.Where("order_id = ? AND menu_item_id = ?", order.ID, item.ID).
					Delete(&models.OrderItem{}).Error; err != nil {
					return err
				}
				applied++
				details = append(details, "remove "+item.Name)

			case UpdateQuantityAction:
				item := resolveMenuItem(menu, act.Name)
				if item == nil {
					continue
				}
				// Setting to zero or less is a removal and gates as one.
				action := ActionAdd
				if act.Quantity < 1 {
					action = ActionRemove
				}
				if !CanModifyItems(order.Status, action, item.Class) {
					continue
				}
				if act.Quantity < 1 {
					if err := tx.Where("order_id = ? AND menu_item_id = ?", order.ID, item.ID).
						Delete(&models.OrderItem{}).Error; err != nil {
						return err
					}
				} else {
					if err := setLineQuantity(tx, order, item, act.Quantity); err != nil {
						if errors.Is(err, ErrOutOfStock) {
							continue
						}
						return err
					}
				}
				applied++
				details = append(details, fmt.Sprintf("set %s = %d", item.Name, act.Quantity))

			case ClearCartAction:
				if order.Status != models.StatusBasketAssembly {
					continue
				}
				if err := tx.Where("order_id = ?", order.ID).
					Delete(&models.OrderItem{}).Error; err != nil {
					return err
				}
				applied++
				details = append(details, "clear cart")
			}
		}

		if applied == 0 {
			return nil
		}
		if err := s.recalcTotal(tx, order); err != nil {
			return err
		}
		order.LastActivity = time.Now().UTC()
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		return LogAudit(tx, order.RestaurantID, &order.ID, models.ActorSystem, "assistant",
			AuditAIActions, strings.Join(details, "; "))
	})
	if err != nil {
		return 0, err
	}

	if applied > 0 && order.Table != nil {
		s.notifyTable(order.Table.PublicToken, events.EventCartUpdated,
			map[string]interface{}{"total": order.TotalPrice})
		s.notifyStaff(order.RestaurantID, events.EventCartUpdated,
			map[string]interface{}{"order_id": order.ID})
	}
	return applied, nil
}

// resolveMenuItem matches a free-text name against the menu: exact
// case-insensitive first, then first substring hit.
func resolveMenuItem(menu []models.MenuItem, name string) *models.MenuItem {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for i := range menu {
		if strings.ToLower(menu[i].Name) == needle {
			return &menu[i]
		}
	}
	for i := range menu {
		if strings.Contains(strings.ToLower(menu[i].Name), needle) {
			return &menu[i]
		}
	}
	return nil
}

// addLine bumps an existing unpaid row by qty or creates one, honoring
// the soft stock limit against the resulting quantity.
func addLine(tx *gorm.DB, order *models.Order, item *models.MenuItem, qty int) error {
	var row models.OrderItem
	found := true
	if err := tx.Where("order_id = ? AND menu_item_id = ? AND is_paid = ?", order.ID, item.ID, false).
		First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
	}
	target := qty
	if found {
		target = row.Quantity + qty
	}
	if item.Stock != nil && target > *item.Stock {
		return fmt.Errorf("%s: %w", item.Name, ErrOutOfStock)
	}
	if found {
		row.Quantity = target
		return tx.Save(&row).Error
	}
	row = models.OrderItem{OrderID: order.ID, MenuItemID: item.ID, Quantity: qty}
	return tx.Create(&row).Error
}

// setLineQuantity pins a row to an absolute quantity, creating it when
// absent.
func setLineQuantity(tx *gorm.DB, order *models.Order, item *models.MenuItem, qty int) error {
	if item.Stock != nil && qty > *item.Stock {
		return fmt.Errorf("%s: %w", item.Name, ErrOutOfStock)
	}
	var row models.OrderItem
	if err := tx.Where("order_id = ? AND menu_item_id = ? AND is_paid = ?", order.ID, item.ID, false).
		First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row = models.OrderItem{OrderID: order.ID, MenuItemID: item.ID, Quantity: qty}
		return tx.Create(&row).Error
	}
	row.Quantity = qty
	return tx.Save(&row).Error
}
