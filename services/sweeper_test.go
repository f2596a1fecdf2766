package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodstream/foodstream/models"
)

func TestSweep_RemindsIdleBasketsOnce(t *testing.T) {
	db := newTestDB(t)
	f := seedTenant(t, db)
	notifier := &recordingNotifier{}
	cart := NewCartService(db, notifier)

	_, err := cart.UpdateItem(f.Restaurant.ID, "tok-table-1", "guest-a", "Alice", f.Soup.ID, ActionAdd)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).
		Where("table_id = ?", f.Tables[0].ID).
		Update("last_activity", time.Now().UTC().Add(-10*time.Minute)).Error)

	sweeper := &Sweeper{DB: db, Notifier: notifier}
	sweeper.Sweep()

	var order models.Order
	require.NoError(t, db.Where("table_id = ?", f.Tables[0].ID).First(&order).Error)
	assert.True(t, order.ReminderSent)

	var reminders int64
	require.NoError(t, db.Model(&models.ChatMessage{}).
		Where("order_id = ? AND sender = ?", order.ID, "bot").Count(&reminders).Error)
	assert.EqualValues(t, 1, reminders)
	assert.Contains(t, notifier.tableEvents(), "chat_message")

	// A second pass stays quiet.
	sweeper.Sweep()
	require.NoError(t, db.Model(&models.ChatMessage{}).
		Where("order_id = ? AND sender = ?", order.ID, "bot").Count(&reminders).Error)
	assert.EqualValues(t, 1, reminders)
}

func TestSweep_IgnoresEmptyAndRecentBaskets(t *testing.T) {
	db := newTestDB(t)
	f := seedTenant(t, db)
	cart := NewCartService(db, nil)

	// Empty basket, idle long enough.
	empty, _, err := cart.GetOrCreateCart(f.Restaurant.ID, "tok-table-1", "guest-a", "Alice")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", empty.ID).
		Update("last_activity", time.Now().UTC().Add(-10*time.Minute)).Error)

	// Non-empty basket, but fresh.
	_, err = cart.UpdateItem(f.Restaurant.ID, "tok-table-2", "guest-b", "Bob", f.Soup.ID, ActionAdd)
	require.NoError(t, err)

	sweeper := &Sweeper{DB: db}
	sweeper.Sweep()

	var reminded int64
	require.NoError(t, db.Model(&models.Order{}).
		Where("reminder_sent = ?", true).Count(&reminded).Error)
	assert.Zero(t, reminded)
}

func TestSweep_SkipsSubmittedOrders(t *testing.T) {
	db := newTestDB(t)
	f := seedTenant(t, db)
	cart := NewCartService(db, nil)

	_, err := cart.UpdateItem(f.Restaurant.ID, "tok-table-1", "guest-a", "Alice", f.Soup.ID, ActionAdd)
	require.NoError(t, err)
	order, err := cart.Submit(f.Restaurant.ID, "tok-table-1", "guest-a", nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("last_activity", time.Now().UTC().Add(-10*time.Minute)).Error)

	sweeper := &Sweeper{DB: db}
	sweeper.Sweep()

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.False(t, reloaded.ReminderSent, "reminders are only for unsubmitted baskets")
}
