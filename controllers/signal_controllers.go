package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/services"
	"github.com/foodstream/foodstream/utils"
)

type SignalController struct {
	DB      *gorm.DB
	Signals *services.SignalService
}

func NewSignalController(db *gorm.DB, signals *services.SignalService) *SignalController {
	return &SignalController{DB: db, Signals: signals}
}

// Raise is the guest "call waiter" button.
func (ctl *SignalController) Raise(c *gin.Context) {
	restaurant, ok := resolveRestaurant(ctl.DB, c)
	if !ok {
		return
	}

	signal, err := ctl.Signals.Raise(restaurant.ID, c.Param("token"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "waiter called", gin.H{"signal_id": signal.ID})
}

// Active lists pending signals for the staff dashboard.
func (ctl *SignalController) Active(c *gin.Context) {
	staff := staffIdentity(c)

	signals, err := ctl.Signals.Active(staff.RestaurantID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "active signals", signals)
}

// Resolve clears one signal.
func (ctl *SignalController) Resolve(c *gin.Context) {
	staff := staffIdentity(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ctl.Signals.Resolve(staff, uint(id)); err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "signal resolved", nil)
}
