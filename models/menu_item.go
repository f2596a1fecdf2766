package models

import "time"

// MenuItem is a tenant-scoped catalog entry.
//
// Stock semantics: nil = unlimited, 0 = sold out, >0 = remaining units.
// Class replaces the old category-name string matching with an explicit
// attribute so the permission matrix stays exhaustive.
type MenuItem struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"not null;index" json:"restaurant_id"`
	Name         string     `gorm:"type:varchar(255);not null;index" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	Price        float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageUrl     *string    `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	SortOrder    int        `gorm:"not null;default:0" json:"sort_order"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	Stock        *int       `json:"stock"`
	Class        ItemClass  `gorm:"type:varchar(10);not null;default:'food'" json:"class"`
	Categories   []Category `gorm:"many2many:menu_item_categories" json:"categories,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}
