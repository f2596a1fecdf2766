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

type CategoryController struct {
	DB *gorm.DB
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{DB: db}
}

func (ctl *CategoryController) List(c *gin.Context) {
	staff := staffIdentity(c)

	var cats []models.Category
	if err := ctl.DB.Where("restaurant_id = ?", staff.RestaurantID).
		Order("sort_order asc, name asc").Find(&cats).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "categories", cats)
}

type categoryRequest struct {
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

func (ctl *CategoryController) Create(c *gin.Context) {
	staff := staffIdentity(c)
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cat := models.Category{
		RestaurantID: staff.RestaurantID,
		Name:         req.Name,
		SortOrder:    req.SortOrder,
		IsActive:     true,
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	if err := ctl.DB.Create(&cat).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "category created", cat)
}

func (ctl *CategoryController) Update(c *gin.Context) {
	staff := staffIdentity(c)
	cat, ok := ctl.ownCategory(c, staff.RestaurantID)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cat.Name = req.Name
	cat.SortOrder = req.SortOrder
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	if err := ctl.DB.Save(cat).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "category updated", cat)
}

func (ctl *CategoryController) Delete(c *gin.Context) {
	staff := staffIdentity(c)
	cat, ok := ctl.ownCategory(c, staff.RestaurantID)
	if !ok {
		return
	}

	err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM menu_item_categories WHERE category_id = ?", cat.ID).Error; err != nil {
			return err
		}
		return tx.Delete(cat).Error
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "category deleted", nil)
}

func (ctl *CategoryController) ownCategory(c *gin.Context, restaurantID uint) (*models.Category, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return nil, false
	}
	var cat models.Category
	if err := ctl.DB.First(&cat, uint(id)).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("category not found"))
		return nil, false
	}
	if cat.RestaurantID != restaurantID {
		utils.RespondError(c, http.StatusForbidden, errors.New("forbidden"))
		return nil, false
	}
	return &cat, true
}
