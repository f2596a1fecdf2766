package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

type tableView struct {
	models.Table
	PublicToken string `json:"public_token"`
}

// ListTables returns the tenant's tables with their tokens exposed; this
// is the admin surface, the token stays hidden everywhere else.
func (ctl *TableController) ListTables(c *gin.Context) {
	staff := staffIdentity(c)

	var tables []models.Table
	if err := ctl.DB.Where("restaurant_id = ?", staff.RestaurantID).
		Order("number asc").Find(&tables).Error; err != nil {
		respondDomainError(c, err)
		return
	}

	views := make([]tableView, 0, len(tables))
	for _, t := range tables {
		views = append(views, tableView{Table: t, PublicToken: t.PublicToken})
	}
	utils.RespondJSON(c, http.StatusOK, "tables", views)
}

type tableCountRequest struct {
	TableCount int `json:"table_count" binding:"required,min=1,max=500"`
}

// SetTableCount grows or shrinks the floor. Growing mints new tables with
// fresh tokens; shrinking deactivates from the top so order history and
// printed codes stay intact.
func (ctl *TableController) SetTableCount(c *gin.Context) {
	staff := staffIdentity(c)
	var req tableCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Restaurant{}).Where("id = ?", staff.RestaurantID).
			Update("table_count", req.TableCount).Error; err != nil {
			return err
		}
		return SyncTables(tx, staff.RestaurantID, req.TableCount)
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "table count updated", gin.H{"table_count": req.TableCount})
}

type tableActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (ctl *TableController) SetActive(c *gin.Context) {
	staff := staffIdentity(c)
	table, ok := ctl.ownTable(c, staff.RestaurantID)
	if !ok {
		return
	}
	var req tableActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ctl.DB.Model(table).Update("is_active", *req.Active).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "table updated", nil)
}

// QRCode renders the table's guest URL as a printable PNG.
func (ctl *TableController) QRCode(c *gin.Context) {
	staff := staffIdentity(c)
	table, ok := ctl.ownTable(c, staff.RestaurantID)
	if !ok {
		return
	}

	var restaurant models.Restaurant
	if err := ctl.DB.First(&restaurant, staff.RestaurantID).Error; err != nil {
		respondDomainError(c, err)
		return
	}

	base := os.Getenv("PUBLIC_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	content := fmt.Sprintf("%s/r/%s/t/%s", base, restaurant.Slug, table.PublicToken)

	size := 512
	if raw := c.Query("size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 64 && v <= 2048 {
			size = v
		}
	}

	img, err := utils.GenerateQRCode(content, size)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (ctl *TableController) ownTable(c *gin.Context, restaurantID uint) (*models.Table, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return nil, false
	}
	var table models.Table
	if err := ctl.DB.First(&table, uint(id)).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
		return nil, false
	}
	if table.RestaurantID != restaurantID {
		utils.RespondError(c, http.StatusForbidden, errors.New("forbidden"))
		return nil, false
	}
	return &table, true
}

// SyncTables reconciles the physical table rows with the configured
// count. Existing numbers keep their rows and tokens.
func SyncTables(tx *gorm.DB, restaurantID uint, count int) error {
	var tables []models.Table
	if err := tx.Where("restaurant_id = ?", restaurantID).Find(&tables).Error; err != nil {
		return err
	}
	byNumber := make(map[int]*models.Table, len(tables))
	for i := range tables {
		byNumber[tables[i].Number] = &tables[i]
	}

	for n := 1; n <= count; n++ {
		if existing, ok := byNumber[n]; ok {
			if !existing.IsActive {
				if err := tx.Model(existing).Update("is_active", true).Error; err != nil {
					return err
				}
			}
			continue
		}
		table := models.Table{
			RestaurantID: restaurantID,
			Number:       n,
			PublicToken:  utils.NewPublicToken(),
			IsActive:     true,
		}
		if err := tx.Create(&table).Error; err != nil {
			return err
		}
	}

	for n, table := range byNumber {
		if n > count && table.IsActive {
			if err := tx.Model(table).Update("is_active", false).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
