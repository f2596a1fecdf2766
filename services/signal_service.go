package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/foodstream/foodstream/events"
	"github.com/foodstream/foodstream/models"
)

// SignalService handles the "call waiter" button. Raising is idempotent
// per table; resolving is a staff action.
type SignalService struct {
	DB       *gorm.DB
	Cart     *CartService
	Notifier events.Notifier
}

func NewSignalService(db *gorm.DB, cart *CartService, notifier events.Notifier) *SignalService {
	return &SignalService{DB: db, Cart: cart, Notifier: notifier}
}

// Raise creates the table's active signal unless one already exists.
func (s *SignalService) Raise(restaurantID uint, tableToken string) (*models.ServiceSignal, error) {
	table, err := s.Cart.ResolveTable(restaurantID, tableToken)
	if err != nil {
		return nil, err
	}

	var signal models.ServiceSignal
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("restaurant_id = ? AND table_number = ? AND is_active = ?",
			restaurantID, table.Number, true).First(&signal).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		signal = models.ServiceSignal{
			RestaurantID: restaurantID,
			TableNumber:  table.Number,
			IsActive:     true,
		}
		return tx.Create(&signal).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.EmitStaff(restaurantID, events.EventNewSignal,
			map[string]interface{}{"signal_id": signal.ID, "table": table.Number})
	}
	return &signal, nil
}

// Active lists the tenant's unresolved signals, newest first.
func (s *SignalService) Active(restaurantID uint) ([]models.ServiceSignal, error) {
	var signals []models.ServiceSignal
	err := s.DB.Where("restaurant_id = ? AND is_active = ?", restaurantID, true).
		Order("created_at desc").Find(&signals).Error
	return signals, err
}

// Resolve flips a signal off and audits who cleared it.
func (s *SignalService) Resolve(staff StaffIdentity, signalID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var signal models.ServiceSignal
		if err := tx.First(&signal, signalID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrOrderNotFound
			}
			return err
		}
		if signal.RestaurantID != staff.RestaurantID {
			return ErrForbidden
		}
		if err := tx.Model(&signal).Update("is_active", false).Error; err != nil {
			return err
		}
		return LogAudit(tx, staff.RestaurantID, nil, models.ActorStaff, staff.actorID(),
			AuditSignalResolved, fmt.Sprintf("table %d", signal.TableNumber))
	})
}
