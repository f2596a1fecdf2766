package models

import "time"

// Table is a physical table. PublicToken is the opaque identifier printed
// on the table's QR code; guests never see the numeric ID.
type Table struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"not null;index" json:"restaurant_id"`
	Restaurant   Restaurant `gorm:"foreignKey:RestaurantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Number       int        `gorm:"not null" json:"number"`
	PublicToken  string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
}
