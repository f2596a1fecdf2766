package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/events"
	"github.com/foodstream/foodstream/services"
	"github.com/foodstream/foodstream/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSController upgrades guests and staff dashboards into hub rooms. The
// socket is push-only; clients keep the read side open for pings.
type WSController struct {
	DB   *gorm.DB
	Hub  *events.Hub
	Cart *services.CartService
}

func NewWSController(db *gorm.DB, hub *events.Hub, cart *services.CartService) *WSController {
	return &WSController{DB: db, Hub: hub, Cart: cart}
}

// TableSocket joins a guest to their table's event room.
func (ctl *WSController) TableSocket(c *gin.Context) {
	restaurant, ok := resolveRestaurant(ctl.DB, c)
	if !ok {
		return
	}
	token := c.Param("token")
	if _, err := ctl.Cart.ResolveTable(restaurant.ID, token); err != nil {
		respondDomainError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("ws upgrade: %v", err)
		return
	}

	room := events.TableRoom(token)
	ctl.Hub.Join(room, conn)
	go ctl.drain(room, conn)
}

// StaffSocket joins an authenticated staff member to the tenant room. The
// JWT rides in the query string because browsers cannot set headers on
// websocket dials.
func (ctl *WSController) StaffSocket(c *gin.Context) {
	claims, err := utils.ParseToken(c.Query("token"))
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("ws upgrade: %v", err)
		return
	}

	room := events.StaffRoom(claims.RestaurantID)
	ctl.Hub.Join(room, conn)
	go ctl.drain(room, conn)
}

// drain keeps the read pump alive until the peer goes away, then leaves
// the room.
func (ctl *WSController) drain(room string, conn *websocket.Conn) {
	defer ctl.Hub.Leave(room, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
