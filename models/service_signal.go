package models

import "time"

// ServiceSignal is a "call waiter" request from a table. Only one active
// signal per table is kept; resolving flips IsActive off.
type ServiceSignal struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	TableNumber  int       `gorm:"not null" json:"table_number"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}
