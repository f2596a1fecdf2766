package models

import "time"

// Order is the shared cart of one table, and the same row all the way
// through the kitchen/delivery/payment lifecycle.
//
// TableID goes NULL if the table is ever removed; TableNumber is kept
// denormalized so history stays readable. OwnerToken is the guest token of
// whoever created the order; it is assigned once and never overwritten.
type Order struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	RestaurantID uint        `gorm:"not null;index" json:"restaurant_id"`
	Restaurant   Restaurant  `gorm:"foreignKey:RestaurantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	TableID      *uint       `gorm:"index" json:"table_id,omitempty"`
	Table        *Table      `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"table,omitempty"`
	TableNumber  *int        `json:"table_number,omitempty"`
	PhoneNumber  *string     `gorm:"type:varchar(32);index" json:"phone_number,omitempty"`
	OwnerToken   *string     `gorm:"type:varchar(64);index" json:"-"`
	OwnerName    *string     `gorm:"type:varchar(100)" json:"owner_name,omitempty"`
	ChatChannel  *string     `gorm:"type:varchar(64);index" json:"chat_channel,omitempty"`
	IsBotActive  bool        `gorm:"not null;default:true" json:"is_bot_active"`
	ReminderSent bool        `gorm:"not null;default:false" json:"reminder_sent"`
	LastActivity time.Time   `gorm:"not null" json:"last_activity"`
	Status       OrderStatus `gorm:"type:varchar(30);not null;default:'BASKET_ASSEMBLY';index" json:"status"`
	TotalPrice   float64     `gorm:"type:decimal(10,2);not null;default:0" json:"total_price"`
	WaiterID     *uint       `gorm:"index" json:"waiter_id,omitempty"`
	Waiter       *User       `gorm:"foreignKey:WaiterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"waiter,omitempty"`
	Items        []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt    time.Time   `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updated_at"`
}

func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// OwnedBy reports whether the given guest token may act as the order's
// owner. Orders without a recorded owner (staff tickets, bot-created
// drafts) treat every guest as the owner.
func (o *Order) OwnedBy(guestToken string) bool {
	if o.OwnerToken == nil || *o.OwnerToken == "" {
		return true
	}
	return *o.OwnerToken == guestToken
}
