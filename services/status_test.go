package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodstream/foodstream/models"
)

func TestCanModifyItems(t *testing.T) {
	cases := []struct {
		status models.OrderStatus
		action ItemAction
		want   bool
	}{
		{models.StatusBasketAssembly, ActionAdd, true},
		{models.StatusBasketAssembly, ActionRemove, true},
		{models.StatusRequiresPayment, ActionAdd, true},
		{models.StatusRequiresPayment, ActionRemove, false},
		{models.StatusVerification, ActionAdd, true},
		{models.StatusVerification, ActionRemove, false},
		{models.StatusInProgress, ActionAdd, true},
		{models.StatusInProgress, ActionRemove, false},
		{models.StatusDelivery, ActionAdd, true},
		{models.StatusDelivery, ActionRemove, false},
		{models.StatusPaymentError, ActionAdd, false},
		{models.StatusPaymentError, ActionRemove, false},
		{models.StatusDelivered, ActionAdd, false},
		{models.StatusDelivered, ActionRemove, false},
		{models.StatusCanceled, ActionAdd, false},
		{models.StatusCanceled, ActionRemove, false},
	}

	for _, tc := range cases {
		for _, class := range []models.ItemClass{models.ClassFood, models.ClassDrink} {
			got := CanModifyItems(tc.status, tc.action, class)
			assert.Equal(t, tc.want, got, "%s %s %s", tc.status, tc.action, class)
		}
	}
}

func TestIsStale(t *testing.T) {
	now := time.Now().UTC()
	order := &models.Order{LastActivity: now.Add(-time.Hour)}
	assert.False(t, IsStale(order, now))

	order.LastActivity = now.Add(-StaleAfter - time.Minute)
	assert.True(t, IsStale(order, now))
}

func TestCanGuestReset(t *testing.T) {
	now := time.Now().UTC()
	owner := "guest-a"

	t.Run("owner resets own basket", func(t *testing.T) {
		order := &models.Order{
			Status: models.StatusBasketAssembly, OwnerToken: &owner, LastActivity: now,
		}
		allowed, stale, err := CanGuestReset(order, "guest-a", now)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, stale)
	})

	t.Run("non-owner blocked on fresh basket", func(t *testing.T) {
		order := &models.Order{
			Status: models.StatusBasketAssembly, OwnerToken: &owner, LastActivity: now,
		}
		allowed, _, err := CanGuestReset(order, "guest-b", now)
		assert.False(t, allowed)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("owner blocked once in flight", func(t *testing.T) {
		order := &models.Order{
			Status: models.StatusInProgress, OwnerToken: &owner, LastActivity: now,
		}
		allowed, _, err := CanGuestReset(order, "guest-a", now)
		assert.False(t, allowed)
		assert.ErrorIs(t, err, ErrStageBlocked)
	})

	t.Run("staleness overrides both gates", func(t *testing.T) {
		order := &models.Order{
			Status:       models.StatusInProgress,
			OwnerToken:   &owner,
			LastActivity: now.Add(-3 * time.Hour),
		}
		allowed, stale, err := CanGuestReset(order, "guest-b", now)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, stale)
	})

	t.Run("one hour idle is not stale", func(t *testing.T) {
		order := &models.Order{
			Status:       models.StatusInProgress,
			OwnerToken:   &owner,
			LastActivity: now.Add(-time.Hour),
		}
		allowed, _, err := CanGuestReset(order, "guest-b", now)
		assert.False(t, allowed)
		assert.ErrorIs(t, err, ErrStageBlocked)
	})
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range models.AllStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, models.OrderStatus("SHIPPED").Valid())
}
