package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/services"
	"github.com/foodstream/foodstream/utils"
)

type ChatController struct {
	DB   *gorm.DB
	Chat *services.ChatService
}

func NewChatController(db *gorm.DB, chat *services.ChatService) *ChatController {
	return &ChatController{DB: db, Chat: chat}
}

type postMessageRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// Post stores the guest message and queues the assistant. The bot reply
// arrives asynchronously over the table's event stream.
func (ctl *ChatController) Post(c *gin.Context) {
	restaurant, ok := resolveRestaurant(ctl.DB, c)
	if !ok {
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	guestToken, guestName := guestIdentity(c)

	msg, err := ctl.Chat.Post(restaurant.ID, c.Param("token"), guestToken, guestName, req.Message)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusAccepted, "message queued", msg)
}

// History returns the active order's chat, oldest first.
func (ctl *ChatController) History(c *gin.Context) {
	restaurant, ok := resolveRestaurant(ctl.DB, c)
	if !ok {
		return
	}
	guestToken, guestName := guestIdentity(c)

	msgs, err := ctl.Chat.History(restaurant.ID, c.Param("token"), guestToken, guestName)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "chat history", msgs)
}
