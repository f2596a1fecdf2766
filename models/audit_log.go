package models

import "time"

// Actor classes recorded in the audit trail.
const (
	ActorGuest  = "guest"
	ActorStaff  = "staff"
	ActorSystem = "system"
)

// AuditLog rows are append-only; nothing in the application updates or
// deletes them.
type AuditLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	OrderID      *uint     `gorm:"index" json:"order_id,omitempty"`
	ActorType    string    `gorm:"type:varchar(20);not null" json:"actor_type"`
	ActorID      string    `gorm:"type:varchar(100);not null" json:"actor_id"`
	Action       string    `gorm:"type:varchar(50);not null" json:"action"`
	Details      string    `gorm:"type:text" json:"details"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}
