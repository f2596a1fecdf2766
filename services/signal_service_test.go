package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodstream/foodstream/models"
)

func TestSignalLifecycle(t *testing.T) {
	db := newTestDB(t)
	f := seedTenant(t, db)
	notifier := &recordingNotifier{}
	cart := NewCartService(db, notifier)
	svc := NewSignalService(db, cart, notifier)

	first, err := svc.Raise(f.Restaurant.ID, "tok-table-1")
	require.NoError(t, err)
	assert.Contains(t, notifier.staffEvents(), "new_signal")

	// Pressing the button again reuses the active signal.
	second, err := svc.Raise(f.Restaurant.ID, "tok-table-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	active, err := svc.Active(f.Restaurant.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)

	staff := StaffIdentity{UserID: 1, Role: models.RoleWaiter, RestaurantID: f.Restaurant.ID}
	require.NoError(t, svc.Resolve(staff, first.ID))

	active, err = svc.Active(f.Restaurant.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Resolving clears the slot; the next press opens a new signal.
	third, err := svc.Raise(f.Restaurant.ID, "tok-table-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestSignalResolve_TenantIsolation(t *testing.T) {
	db := newTestDB(t)
	f := seedTenant(t, db)
	cart := NewCartService(db, nil)
	svc := NewSignalService(db, cart, nil)

	signal, err := svc.Raise(f.Restaurant.ID, "tok-table-1")
	require.NoError(t, err)

	foreign := StaffIdentity{UserID: 2, Role: models.RoleWaiter, RestaurantID: f.Restaurant.ID + 5}
	assert.ErrorIs(t, svc.Resolve(foreign, signal.ID), ErrForbidden)
}
