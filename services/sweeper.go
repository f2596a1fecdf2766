package services

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/events"
	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/utils"
)

const sweepInterval = 2 * time.Minute

// Sweeper periodically nudges tables that assembled a basket and then
// went quiet. Each basket is reminded at most once; the flag resets only
// with a new order.
type Sweeper struct {
	DB        *gorm.DB
	Notifier  events.Notifier
	scheduler gocron.Scheduler
}

func NewSweeper(db *gorm.DB, notifier events.Notifier) (*Sweeper, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sw := &Sweeper{DB: db, Notifier: notifier, scheduler: s}
	_, err = s.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(sw.Sweep),
	)
	if err != nil {
		return nil, err
	}
	return sw, nil
}

func (s *Sweeper) Start() { s.scheduler.Start() }

func (s *Sweeper) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		utils.ErrorLogger.Printf("sweeper shutdown: %v", err)
	}
}

// Sweep is one pass: every idle non-empty basket past the reminder
// threshold gets a one-time bot nudge in its chat.
func (s *Sweeper) Sweep() {
	cutoff := time.Now().UTC().Add(-ReminderAfter)

	var orders []models.Order
	err := s.DB.Preload("Table").
		Where("status = ? AND reminder_sent = ? AND last_activity < ?",
			models.StatusBasketAssembly, false, cutoff).
		Find(&orders).Error
	if err != nil {
		utils.ErrorLogger.Printf("sweeper: query: %v", err)
		return
	}

	for i := range orders {
		order := &orders[i]

		var lines int64
		if err := s.DB.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).
			Count(&lines).Error; err != nil || lines == 0 {
			continue
		}

		msg := models.ChatMessage{
			OrderID:     order.ID,
			Sender:      "bot",
			MessageType: "text",
			Content:     "Похоже, вы собрали корзину, но ещё не оформили заказ. Подсказать что-нибудь или оформить?",
		}
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&msg).Error; err != nil {
				return err
			}
			return tx.Model(order).Update("reminder_sent", true).Error
		})
		if err != nil {
			utils.ErrorLogger.Printf("sweeper: remind order %d: %v", order.ID, err)
			continue
		}

		if s.Notifier != nil && order.Table != nil {
			s.Notifier.EmitTable(order.Table.PublicToken, events.EventChatMessage, &msg)
		}
	}
}
