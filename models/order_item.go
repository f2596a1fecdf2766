package models

import "time"

// OrderItem is one line of a cart. Quantity is always >= 1 for a present
// row; removal deletes the row instead of storing zero. IsPaid allows a
// table's bill to be settled per position.
type OrderItem struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	OrderID    uint     `gorm:"not null;index" json:"order_id"`
	Order      Order    `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID uint     `gorm:"not null" json:"menu_item_id"`
	MenuItem   MenuItem `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item"`
	Quantity   int      `gorm:"not null;default:1" json:"quantity"`
	AddedBy    *string  `gorm:"type:varchar(100)" json:"added_by,omitempty"`
	IsPaid     bool     `gorm:"not null;default:false" json:"is_paid"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}
