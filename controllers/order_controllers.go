package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/services"
	"github.com/foodstream/foodstream/utils"
)

// OrderController is the staff side: dashboards, status transitions,
// settlement, the POS ticket and the audit trail.
type OrderController struct {
	DB   *gorm.DB
	Cart *services.CartService
}

func NewOrderController(db *gorm.DB, cart *services.CartService) *OrderController {
	return &OrderController{DB: db, Cart: cart}
}

// ListOrders returns the tenant's orders, optionally filtered by status,
// newest first.
func (ctl *OrderController) ListOrders(c *gin.Context) {
	staff := staffIdentity(c)

	q := ctl.DB.Preload("Items.MenuItem").Preload("Waiter").
		Where("restaurant_id = ?", staff.RestaurantID)
	if status := c.Query("status"); status != "" {
		if !models.OrderStatus(status).Valid() {
			respondDomainError(c, services.ErrInvalidStatus)
			return
		}
		q = q.Where("status = ?", status)
	} else if c.Query("active") == "true" {
		q = q.Where("status NOT IN ?", models.TerminalStatuses)
	}

	var orders []models.Order
	if err := q.Order("created_at desc").Limit(200).Find(&orders).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "orders", orders)
}

// GetOrder returns one order with its lines.
func (ctl *OrderController) GetOrder(c *gin.Context) {
	staff := staffIdentity(c)
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var order models.Order
	if err := ctl.DB.Preload("Items.MenuItem").Preload("Table").
		First(&order, uint(orderID)).Error; err != nil {
		respondDomainError(c, services.ErrOrderNotFound)
		return
	}
	if order.RestaurantID != staff.RestaurantID {
		respondDomainError(c, services.ErrForbidden)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "order", order)
}

type tableBoardEntry struct {
	Table  models.Table  `json:"table"`
	Order  *models.Order `json:"order,omitempty"`
	Signal bool          `json:"signal"`
}

// TableBoard is the floor view: every table with its active order and
// whether a waiter call is pending.
func (ctl *OrderController) TableBoard(c *gin.Context) {
	staff := staffIdentity(c)

	var tables []models.Table
	if err := ctl.DB.Where("restaurant_id = ?", staff.RestaurantID).
		Order("number asc").Find(&tables).Error; err != nil {
		respondDomainError(c, err)
		return
	}

	var orders []models.Order
	if err := ctl.DB.Preload("Items.MenuItem").
		Where("restaurant_id = ? AND status NOT IN ?", staff.RestaurantID, models.TerminalStatuses).
		Find(&orders).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	byTable := make(map[uint]*models.Order, len(orders))
	for i := range orders {
		if orders[i].TableID != nil {
			byTable[*orders[i].TableID] = &orders[i]
		}
	}

	var signals []models.ServiceSignal
	if err := ctl.DB.Where("restaurant_id = ? AND is_active = ?", staff.RestaurantID, true).
		Find(&signals).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	signaled := make(map[int]bool, len(signals))
	for _, s := range signals {
		signaled[s.TableNumber] = true
	}

	board := make([]tableBoardEntry, 0, len(tables))
	for _, t := range tables {
		board = append(board, tableBoardEntry{
			Table:  t,
			Order:  byTable[t.ID],
			Signal: signaled[t.Number],
		})
	}
	utils.RespondJSON(c, http.StatusOK, "table board", board)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus moves an order to an arbitrary status on staff authority.
func (ctl *OrderController) SetStatus(c *gin.Context) {
	staff := staffIdentity(c)
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := ctl.Cart.SetStatus(staff, uint(orderID), models.OrderStatus(req.Status))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "status updated", gin.H{"order_id": order.ID, "status": order.Status})
}

type payItemsRequest struct {
	ItemIDs []uint `json:"item_ids"`
}

// PayItems settles line items; an empty list settles the whole order.
func (ctl *OrderController) PayItems(c *gin.Context) {
	staff := staffIdentity(c)
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req payItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ctl.Cart.SettleItems(staff, uint(orderID), req.ItemIDs); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "items settled", nil)
}

type toggleBotRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ToggleBot switches the assistant on or off for one order's chat.
func (ctl *OrderController) ToggleBot(c *gin.Context) {
	staff := staffIdentity(c)
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req toggleBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ctl.Cart.SetBotActive(staff, uint(orderID), *req.Active); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "bot toggled", nil)
}

// ResetTable force-cancels the table's active order.
func (ctl *OrderController) ResetTable(c *gin.Context) {
	staff := staffIdentity(c)
	tableID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ctl.Cart.StaffResetTable(staff, uint(tableID)); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "table reset", nil)
}

type posTicketRequest struct {
	TableNumber int                   `json:"table_number" binding:"required"`
	Items       []services.TicketItem `json:"items" binding:"required,min=1,dive"`
}

// CreateTicket opens an order on behalf of a waiter.
func (ctl *OrderController) CreateTicket(c *gin.Context) {
	staff := staffIdentity(c)
	var req posTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := ctl.Cart.CreateStaffTicket(staff, req.TableNumber, req.Items)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "ticket created", gin.H{
		"order_id": order.ID, "total_price": order.TotalPrice,
	})
}

// AuditTrail lists audit entries, optionally for a single order.
func (ctl *OrderController) AuditTrail(c *gin.Context) {
	staff := staffIdentity(c)

	q := ctl.DB.Where("restaurant_id = ?", staff.RestaurantID)
	if raw := c.Query("order_id"); raw != "" {
		orderID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		q = q.Where("order_id = ?", uint(orderID))
	}

	var entries []models.AuditLog
	if err := q.Order("created_at desc, id desc").Limit(500).Find(&entries).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "audit trail", entries)
}
