package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/events"
	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/router"
	"github.com/foodstream/foodstream/services"
	"github.com/foodstream/foodstream/utils"
)

type testEnv struct {
	db     *gorm.DB
	engine *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	dsn := fmt.Sprintf("file:integration_%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, autoMigrate(db))

	hub := events.NewHub()
	cart := services.NewCartService(db, hub)
	signals := services.NewSignalService(db, cart, hub)
	chat := services.NewChatService(db, cart, nil, hub)

	engine := router.SetupRouter(router.Deps{
		DB:      db,
		Hub:     hub,
		Cart:    cart,
		Chat:    chat,
		Signals: signals,
	})
	return &testEnv{db: db, engine: engine}
}

func (e *testEnv) seed(t *testing.T) (models.Restaurant, models.Table, models.MenuItem) {
	t.Helper()

	restaurant := models.Restaurant{Name: "Bistro", Slug: "bistro", TableCount: 1}
	require.NoError(t, e.db.Create(&restaurant).Error)

	table := models.Table{
		RestaurantID: restaurant.ID, Number: 1, PublicToken: "bistro-t1", IsActive: true,
	}
	require.NoError(t, e.db.Create(&table).Error)

	stock := 5
	item := models.MenuItem{
		RestaurantID: restaurant.ID, Name: "Borscht", Price: 8.00,
		IsActive: true, Stock: &stock, Class: models.ClassFood,
	}
	require.NoError(t, e.db.Create(&item).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := models.User{
		Username: "bistro-admin", Password: string(hash),
		Role: models.RoleAdmin, IsActive: true, RestaurantID: &restaurant.ID,
	}
	require.NoError(t, e.db.Create(&admin).Error)

	return restaurant, table, item
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	w := e.request(t, http.MethodPost, "/api/auth/login",
		gin.H{"username": username, "password": password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestGuestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, _, item := env.seed(t)

	guest := map[string]string{"X-Guest-Token": "dev-1", "X-Guest-Name": "Alice"}

	w := env.request(t, http.MethodGet, "/api/r/bistro/menu", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Borscht")

	w = env.request(t, http.MethodPost, "/api/r/bistro/t/bistro-t1/cart/items",
		gin.H{"menu_item_id": item.ID, "action": "add"}, guest)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, "/api/r/bistro/t/bistro-t1/cart", nil, guest)
	require.Equal(t, http.StatusOK, w.Code)
	var cartResp struct {
		Data struct {
			Order   models.Order `json:"order"`
			IsOwner bool         `json:"is_owner"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cartResp))
	assert.True(t, cartResp.Data.IsOwner)
	assert.Equal(t, models.StatusBasketAssembly, cartResp.Data.Order.Status)
	orderID := cartResp.Data.Order.ID

	// A joiner sees the same cart but is not the owner.
	joiner := map[string]string{"X-Guest-Token": "dev-2", "X-Guest-Name": "Bob"}
	w = env.request(t, http.MethodGet, "/api/r/bistro/t/bistro-t1/cart", nil, joiner)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cartResp))
	assert.False(t, cartResp.Data.IsOwner)
	assert.Equal(t, orderID, cartResp.Data.Order.ID)

	// Joiner cannot submit.
	w = env.request(t, http.MethodPost, "/api/r/bistro/t/bistro-t1/submit", gin.H{}, joiner)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Owner submits.
	w = env.request(t, http.MethodPost, "/api/r/bistro/t/bistro-t1/submit", gin.H{}, guest)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var menuItem models.MenuItem
	require.NoError(t, env.db.First(&menuItem, item.ID).Error)
	assert.Equal(t, 4, *menuItem.Stock)

	// Staff drives the order to done.
	token := env.login(t, "bistro-admin", "secret-pass")
	auth := map[string]string{"Authorization": "Bearer " + token}

	w = env.request(t, http.MethodGet, "/api/admin/orders?active=true", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"REQUIRES_PAYMENT"`)

	w = env.request(t, http.MethodPatch, fmt.Sprintf("/api/admin/orders/%d/status", orderID),
		gin.H{"status": "IN_PROGRESS"}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodPost, fmt.Sprintf("/api/admin/orders/%d/pay", orderID),
		gin.H{}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var done models.Order
	require.NoError(t, env.db.First(&done, orderID).Error)
	assert.Equal(t, models.StatusDelivered, done.Status)

	// The table is free again: the next guest gets a fresh basket.
	w = env.request(t, http.MethodGet, "/api/r/bistro/t/bistro-t1/cart", nil, joiner)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cartResp))
	assert.NotEqual(t, orderID, cartResp.Data.Order.ID)
	assert.True(t, cartResp.Data.IsOwner, "first guest on the fresh basket owns it")
}

func TestStaffEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.request(t, http.MethodGet, "/api/admin/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodGet, "/api/admin/orders", nil,
		map[string]string{"Authorization": "Bearer not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWaiterCannotManageMenu(t *testing.T) {
	env := newTestEnv(t)
	restaurant, _, _ := env.seed(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("waiter-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	waiter := models.User{
		Username: "bistro-waiter", Password: string(hash),
		Role: models.RoleWaiter, IsActive: true, RestaurantID: &restaurant.ID,
	}
	require.NoError(t, env.db.Create(&waiter).Error)

	token := env.login(t, "bistro-waiter", "waiter-pass")
	auth := map[string]string{"Authorization": "Bearer " + token}

	w := env.request(t, http.MethodPost, "/api/admin/menu",
		gin.H{"name": "Pelmeni", "price": 6.5}, auth)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The floor endpoints still work for waiters.
	w = env.request(t, http.MethodGet, "/api/admin/board", nil, auth)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCallWaiterSignal(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.request(t, http.MethodPost, "/api/r/bistro/t/bistro-t1/call-waiter", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token := env.login(t, "bistro-admin", "secret-pass")
	auth := map[string]string{"Authorization": "Bearer " + token}

	w = env.request(t, http.MethodGet, "/api/admin/signals", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []models.ServiceSignal `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)

	w = env.request(t, http.MethodPost,
		fmt.Sprintf("/api/admin/signals/%d/resolve", resp.Data[0].ID), nil, auth)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatEndpointStoresMessages(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	guest := map[string]string{"X-Guest-Token": "dev-1", "X-Guest-Name": "Alice"}

	w := env.request(t, http.MethodPost, "/api/r/bistro/t/bistro-t1/chat",
		gin.H{"message": "is the borscht vegetarian?"}, guest)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, "/api/r/bistro/t/bistro-t1/chat", nil, guest)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vegetarian")
}
