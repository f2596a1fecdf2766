package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/foodstream/foodstream/events"
	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/utils"
)

const (
	chatQueueSize  = 64
	chatHistoryLen = 6
	chatTimeout    = 45 * time.Second
)

type chatJob struct {
	OrderID    uint
	TableToken string
	Message    string
}

// ChatService persists the table chat and runs the assistant pipeline on
// a fixed pool of workers. Guest posts return immediately; the bot reply
// arrives over the table's event room.
type ChatService struct {
	DB        *gorm.DB
	Cart      *CartService
	Assistant Assistant
	Notifier  events.Notifier

	jobs chan chatJob
	stop chan struct{}
	wg   sync.WaitGroup
}

func NewChatService(db *gorm.DB, cart *CartService, assistant Assistant, notifier events.Notifier) *ChatService {
	return &ChatService{
		DB:        db,
		Cart:      cart,
		Assistant: assistant,
		Notifier:  notifier,
		jobs:      make(chan chatJob, chatQueueSize),
		stop:      make(chan struct{}),
	}
}

// Start launches the worker pool.
func (c *ChatService) Start(workers int) {
	if workers < 1 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for {
				select {
				case job := <-c.jobs:
					c.process(job)
				case <-c.stop:
					return
				}
			}
		}()
	}
}

// Stop shuts the pool down. Queued jobs are dropped.
func (c *ChatService) Stop() {
	close(c.stop)
	c.wg.Wait()
}

// Post stores a guest message on the table's active order and, when the
// bot is enabled, hands it to the worker pool. The guest message itself
// is broadcast right away.
func (c *ChatService) Post(restaurantID uint, tableToken, guestToken, guestName, message string) (*models.ChatMessage, error) {
	order, _, err := c.Cart.GetOrCreateCart(restaurantID, tableToken, guestToken, guestName)
	if err != nil {
		return nil, err
	}

	msg := models.ChatMessage{
		OrderID:     order.ID,
		Sender:      "user",
		MessageType: "text",
		Content:     message,
	}
	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		// Chatting counts as table activity for the staleness clock.
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("last_activity", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, err
	}

	c.emit(tableToken, restaurantID, &msg)

	if order.IsBotActive && c.Assistant != nil {
		select {
		case c.jobs <- chatJob{OrderID: order.ID, TableToken: tableToken, Message: message}:
		default:
			// Queue saturated: degrade immediately instead of blocking the
			// request.
			c.saveBotReply(order.ID, tableToken, restaurantID, ApologyReply)
		}
	}
	return &msg, nil
}

// History returns the chat of the table's active order, oldest first.
func (c *ChatService) History(restaurantID uint, tableToken, guestToken, guestName string) ([]models.ChatMessage, error) {
	order, _, err := c.Cart.GetOrCreateCart(restaurantID, tableToken, guestToken, guestName)
	if err != nil {
		return nil, err
	}
	var msgs []models.ChatMessage
	if err := c.DB.Where("order_id = ?", order.ID).Order("created_at asc, id asc").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *ChatService) process(job chatJob) {
	var order models.Order
	if err := c.DB.Preload("Items.MenuItem").Preload("Table").
		First(&order, job.OrderID).Error; err != nil {
		utils.ErrorLogger.Printf("chat worker: load order %d: %v", job.OrderID, err)
		return
	}
	if order.IsTerminal() || !order.IsBotActive {
		return
	}

	var history []models.ChatMessage
	if err := c.DB.Where("order_id = ?", order.ID).
		Order("created_at desc, id desc").Limit(chatHistoryLen).
		Find(&history).Error; err != nil {
		utils.ErrorLogger.Printf("chat worker: load history: %v", err)
	}
	turns := make([]ChatTurn, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		turns = append(turns, ChatTurn{Sender: history[i].Sender, Content: history[i].Content})
	}

	var menu []models.MenuItem
	if err := c.DB.Where("restaurant_id = ? AND is_active = ?", order.RestaurantID, true).
		Find(&menu).Error; err != nil {
		utils.ErrorLogger.Printf("chat worker: load menu: %v", err)
		c.saveBotReply(order.ID, job.TableToken, order.RestaurantID, ApologyReply)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
	defer cancel()

	reply, err := c.Assistant.Chat(ctx, job.Message, turns, menu, &order)
	if err != nil {
		if !errors.Is(err, ErrUpstreamUnavailable) {
			utils.ErrorLogger.Printf("chat worker: assistant: %v", err)
		}
		c.saveBotReply(order.ID, job.TableToken, order.RestaurantID, ApologyReply)
		return
	}

	if len(reply.Actions) > 0 {
		actions, err := DecodeActions(reply.Actions)
		if err != nil {
			// The model proposed something outside the contract. Nothing is
			// applied.
			utils.ErrorLogger.Printf("chat worker: rejected actions: %v", err)
		} else if _, err := c.Cart.ApplyActions(&order, actions); err != nil {
			utils.ErrorLogger.Printf("chat worker: apply actions: %v", err)
		}
	}

	c.saveBotReply(order.ID, job.TableToken, order.RestaurantID, reply.Reply)
}

func (c *ChatService) saveBotReply(orderID uint, tableToken string, restaurantID uint, content string) {
	msg := models.ChatMessage{
		OrderID:     orderID,
		Sender:      "bot",
		MessageType: "text",
		Content:     content,
	}
	if err := c.DB.Create(&msg).Error; err != nil {
		utils.ErrorLogger.Printf("chat worker: save reply: %v", err)
		return
	}
	c.emit(tableToken, restaurantID, &msg)
}

func (c *ChatService) emit(tableToken string, restaurantID uint, msg *models.ChatMessage) {
	if c.Notifier == nil {
		return
	}
	c.Notifier.EmitTable(tableToken, events.EventChatMessage, msg)
	c.Notifier.EmitStaff(restaurantID, events.EventChatMessage, msg)
}
