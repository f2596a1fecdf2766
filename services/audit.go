package services

import (
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/models"
)

// Audit action tags.
const (
	AuditCartUpdate     = "cart_update"
	AuditOrderCreated   = "order_created"
	AuditOrderReset     = "order_reset"
	AuditStatusChange   = "status_change"
	AuditAIActions      = "ai_actions"
	AuditSignalResolved = "signal_resolved"
	AuditItemsPaid      = "items_paid"
)

// LogAudit appends one audit row inside the caller's transaction, so the
// record commits or rolls back together with the mutation it describes.
func LogAudit(tx *gorm.DB, restaurantID uint, orderID *uint, actorType, actorID, action, details string) error {
	entry := models.AuditLog{
		RestaurantID: restaurantID,
		OrderID:      orderID,
		ActorType:    actorType,
		ActorID:      actorID,
		Action:       action,
		Details:      details,
	}
	return tx.Create(&entry).Error
}
