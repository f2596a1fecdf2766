package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/utils"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a JWT.
func (ctl *UserController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := ctl.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}
	if !user.IsActive {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("account disabled"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	var restaurantID uint
	if user.RestaurantID != nil {
		restaurantID = *user.RestaurantID
	}
	token, err := utils.GenerateToken(user.ID, user.Role, restaurantID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "login successful", gin.H{
		"token": token,
		"user": gin.H{
			"id": user.ID, "username": user.Username, "role": user.Role,
			"restaurant_id": user.RestaurantID,
		},
	})
}

type provisionRequest struct {
	Name          string `json:"name" binding:"required"`
	Slug          string `json:"slug" binding:"required,min=2,max=100,excludesall=/"`
	TableCount    int    `json:"table_count" binding:"required,min=1,max=500"`
	AdminUsername string `json:"admin_username" binding:"required,min=3"`
	AdminPassword string `json:"admin_password" binding:"required,min=8"`
}

// ProvisionRestaurant creates a tenant with its tables, secret admin link
// and first admin account. Super admin only.
func (ctl *UserController) ProvisionRestaurant(c *gin.Context) {
	var req provisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	restaurant := models.Restaurant{
		Name:            req.Name,
		Slug:            strings.ToLower(req.Slug),
		TableCount:      req.TableCount,
		AdminSecretLink: utils.NewSecretLink(),
	}
	err = ctl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&restaurant).Error; err != nil {
			return err
		}
		if err := SyncTables(tx, restaurant.ID, req.TableCount); err != nil {
			return err
		}
		admin := models.User{
			Username:     req.AdminUsername,
			Password:     string(hash),
			Role:         models.RoleAdmin,
			IsActive:     true,
			RestaurantID: &restaurant.ID,
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "restaurant provisioned", gin.H{
		"restaurant_id":     restaurant.ID,
		"slug":              restaurant.Slug,
		"admin_secret_link": restaurant.AdminSecretLink,
	})
}

// ListStaff returns the tenant's accounts.
func (ctl *UserController) ListStaff(c *gin.Context) {
	staff := staffIdentity(c)

	var users []models.User
	if err := ctl.DB.Where("restaurant_id = ?", staff.RestaurantID).
		Order("username asc").Find(&users).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "staff", users)
}

type staffRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=admin waiter"`
}

// CreateStaff adds an admin or waiter inside the caller's tenant.
func (ctl *UserController) CreateStaff(c *gin.Context) {
	staff := staffIdentity(c)
	var req staffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	user := models.User{
		Username:     req.Username,
		Password:     string(hash),
		Role:         req.Role,
		IsActive:     true,
		RestaurantID: &staff.RestaurantID,
	}
	if err := ctl.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusConflict, errors.New("username already taken"))
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "staff created", user)
}

type staffActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetStaffActive enables or disables an account without deleting it.
func (ctl *UserController) SetStaffActive(c *gin.Context) {
	staff := staffIdentity(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req staffActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := ctl.DB.First(&user, uint(id)).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
		return
	}
	if user.RestaurantID == nil || *user.RestaurantID != staff.RestaurantID {
		utils.RespondError(c, http.StatusForbidden, errors.New("forbidden"))
		return
	}
	if user.ID == staff.UserID {
		utils.RespondError(c, http.StatusConflict, errors.New("cannot disable your own account"))
		return
	}

	if err := ctl.DB.Model(&user).Update("is_active", *req.Active).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "staff updated", nil)
}
