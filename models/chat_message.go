package models

import "time"

type ChatMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	Order       Order     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Sender      string    `gorm:"type:varchar(20);not null" json:"sender"`
	MessageType string    `gorm:"type:varchar(20);not null;default:'text'" json:"message_type"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}
