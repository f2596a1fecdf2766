package models

import "time"

// Restaurant is the tenant boundary. Every other entity carries a
// RestaurantID and no query may cross it.
type Restaurant struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug            string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	TableCount      int       `gorm:"not null;default:10" json:"table_count"`
	AdminSecretLink string    `gorm:"type:varchar(100);uniqueIndex" json:"-"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}
