package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/services"
	"github.com/foodstream/foodstream/utils"
)

// httpStatus maps a domain error to its HTTP code. Anything outside the
// taxonomy is a 500.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrTenantMismatch),
		errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrTableInactive),
		errors.Is(err, services.ErrCartEmpty),
		errors.Is(err, services.ErrStageBlocked),
		errors.Is(err, services.ErrOrderTerminal),
		errors.Is(err, services.ErrInvalidStatus):
		return http.StatusConflict
	case errors.Is(err, services.ErrOutOfStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondDomainError(c *gin.Context, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		utils.ErrorLogger.Printf("internal error on %s: %v", c.FullPath(), err)
		utils.RespondError(c, code, errors.New("internal server error"))
		return
	}
	utils.RespondErrorKind(c, code, services.Kind(err), err)
}

// guestIdentity pulls the per-device token and display name from the
// request headers.
func guestIdentity(c *gin.Context) (token, name string) {
	return c.GetHeader("X-Guest-Token"), c.GetHeader("X-Guest-Name")
}

func staffIdentity(c *gin.Context) services.StaffIdentity {
	return services.StaffIdentity{
		UserID:       c.GetUint("user_id"),
		Role:         c.GetString("role"),
		RestaurantID: c.GetUint("restaurant_id"),
	}
}

// resolveRestaurant maps the public slug in the route to a tenant.
func resolveRestaurant(db *gorm.DB, c *gin.Context) (*models.Restaurant, bool) {
	var restaurant models.Restaurant
	if err := db.Where("slug = ?", c.Param("slug")).First(&restaurant).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("restaurant not found"))
		return nil, false
	}
	return &restaurant, true
}
