package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// PublicMenu is the guest-facing catalog: active items only, grouped by
// category order.
func (ctl *MenuController) PublicMenu(c *gin.Context) {
	restaurant, ok := resolveRestaurant(ctl.DB, c)
	if !ok {
		return
	}

	var items []models.MenuItem
	if err := ctl.DB.Preload("Categories").
		Where("restaurant_id = ? AND is_active = ?", restaurant.ID, true).
		Order("sort_order asc, name asc").Find(&items).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "menu", items)
}

// ListItems is the admin view, including inactive items.
func (ctl *MenuController) ListItems(c *gin.Context) {
	staff := staffIdentity(c)

	var items []models.MenuItem
	if err := ctl.DB.Preload("Categories").
		Where("restaurant_id = ?", staff.RestaurantID).
		Order("sort_order asc, name asc").Find(&items).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "menu items", items)
}

type menuItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	ImageUrl    *string `json:"image_url"`
	SortOrder   int     `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
	Stock       *int    `json:"stock"`
	Class       string  `json:"class"`
	CategoryIDs []uint  `json:"category_ids"`
}

func (ctl *MenuController) CreateItem(c *gin.Context) {
	staff := staffIdentity(c)
	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	class := models.ItemClass(req.Class)
	if req.Class == "" {
		class = models.ClassFood
	}
	if !class.Valid() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("class must be food or drink"))
		return
	}

	item := models.MenuItem{
		RestaurantID: staff.RestaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		ImageUrl:     req.ImageUrl,
		SortOrder:    req.SortOrder,
		IsActive:     true,
		Stock:        req.Stock,
		Class:        class,
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return ctl.attachCategories(tx, &item, req.CategoryIDs)
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "item created", item)
}

func (ctl *MenuController) UpdateItem(c *gin.Context) {
	staff := staffIdentity(c)
	item, ok := ctl.ownItem(c, staff.RestaurantID)
	if !ok {
		return
	}
	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	item.ImageUrl = req.ImageUrl
	item.SortOrder = req.SortOrder
	item.Stock = req.Stock
	if req.Class != "" {
		class := models.ItemClass(req.Class)
		if !class.Valid() {
			utils.RespondError(c, http.StatusBadRequest, errors.New("class must be food or drink"))
			return
		}
		item.Class = class
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		return ctl.attachCategories(tx, item, req.CategoryIDs)
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "item updated", item)
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

// SetStock adjusts remaining units; null means unlimited.
func (ctl *MenuController) SetStock(c *gin.Context) {
	staff := staffIdentity(c)
	item, ok := ctl.ownItem(c, staff.RestaurantID)
	if !ok {
		return
	}
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ctl.DB.Model(item).Update("stock", req.Stock).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "stock updated", gin.H{"id": item.ID, "stock": req.Stock})
}

// DeleteItem soft-disables rather than destroys: order history references
// the row.
func (ctl *MenuController) DeleteItem(c *gin.Context) {
	staff := staffIdentity(c)
	item, ok := ctl.ownItem(c, staff.RestaurantID)
	if !ok {
		return
	}
	if err := ctl.DB.Model(item).Update("is_active", false).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "item disabled", nil)
}

func (ctl *MenuController) ownItem(c *gin.Context, restaurantID uint) (*models.MenuItem, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return nil, false
	}
	var item models.MenuItem
	if err := ctl.DB.First(&item, uint(id)).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("item not found"))
		return nil, false
	}
	if item.RestaurantID != restaurantID {
		utils.RespondError(c, http.StatusForbidden, errors.New("forbidden"))
		return nil, false
	}
	return &item, true
}

func (ctl *MenuController) attachCategories(tx *gorm.DB, item *models.MenuItem, ids []uint) error {
	if ids == nil {
		return nil
	}
	var cats []models.Category
	if err := tx.Where("restaurant_id = ? AND id IN ?", item.RestaurantID, ids).
		Find(&cats).Error; err != nil {
		return err
	}
	return tx.Model(item).Association("Categories").Replace(cats)
}
