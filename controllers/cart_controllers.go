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

// CartController serves the guest-facing cart endpoints. The table is
// addressed by its public token, the guest by the X-Guest-Token header.
type CartController struct {
	DB   *gorm.DB
	Cart *services.CartService
}

func NewCartController(db *gorm.DB, cart *services.CartService) *CartController {
	return &CartController{DB: db, Cart: cart}
}

type cartView struct {
	Order   *models.Order `json:"order"`
	IsOwner bool          `json:"is_owner"`
}

// GetCart returns the table's shared cart, creating an empty basket on
// first contact.
func (ctl *CartController) GetCart(c *gin.Context) {
	restaurant, ok := resolveRestaurant(ctl.DB, c)
	if !ok {
		return
	}
	guestToken, guestName := guestIdentity(c)

	order, isOwner, err := ctl.Cart.GetOrCreateCart(restaurant.ID, c.Param("token"), guestToken, guestName)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "cart", cartView{Order: order, IsOwner: isOwner})
}

type updateItemRequest struct {
	MenuItemID uint   `json:"menu_item_id" binding:"required"`
	Action     string `json:"action" binding:"required,oneof=add remove"`
}

// UpdateItem adds or removes one unit of an item in the shared cart.
func (ctl *CartController) UpdateItem(c *gin.Context) {
	restaurant, ok := resolveRestaurant(ctl.DB, c)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	guestToken, guestName := guestIdentity(c)

	order, err := ctl.Cart.UpdateItem(restaurant.ID, c.Param("token"), guestToken, guestName,
		req.MenuItemID, services.ItemAction(req.Action))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "cart updated", gin.H{"order_id": order.ID, "total_price": order.TotalPrice})
}

type submitRequest struct {
	PhoneNumber *string `json:"phone_number"`
}

// Submit finalizes the basket into a placed order.
func (ctl *CartController) Submit(c *gin.Context) {
	restaurant, ok := resolveRestaurant(ctl.DB, c)
	if !ok {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	guestToken, _ := guestIdentity(c)

	order, err := ctl.Cart.Submit(restaurant.ID, c.Param("token"), guestToken, req.PhoneNumber)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "order placed", gin.H{
		"order_id": order.ID, "status": order.Status, "total_price": order.TotalPrice,
	})
}

// Reset discards the table's active order and opens a fresh basket.
func (ctl *CartController) Reset(c *gin.Context) {
	restaurant, ok := resolveRestaurant(ctl.DB, c)
	if !ok {
		return
	}
	guestToken, guestName := guestIdentity(c)

	order, err := ctl.Cart.ResetTable(restaurant.ID, c.Param("token"), guestToken, guestName)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "table reset", gin.H{"order_id": order.ID})
}

// CancelOrder is the guest-side cancel of a specific order.
func (ctl *CartController) CancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	guestToken, _ := guestIdentity(c)

	if err := ctl.Cart.CancelOrder(uint(orderID), guestToken); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "order canceled", nil)
}
