package models

import "time"

// Staff roles. super_admin provisions tenants, admin manages one
// restaurant, waiter works the floor.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleWaiter     = "waiter"
)

type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Username     string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Password     string      `gorm:"type:varchar(255);not null" json:"-"`
	Role         string      `gorm:"type:varchar(50);not null" json:"role"`
	IsActive     bool        `gorm:"not null;default:true" json:"is_active"`
	RestaurantID *uint       `gorm:"index" json:"restaurant_id,omitempty"`
	Restaurant   *Restaurant `gorm:"foreignKey:RestaurantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updated_at"`
}
