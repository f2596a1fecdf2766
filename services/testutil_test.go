package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/utils"
)

func init() {
	utils.InitLogger()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Restaurant{},
		&models.Table{},
		&models.User{},
		&models.Category{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.ChatMessage{},
		&models.ServiceSignal{},
		&models.AuditLog{},
	))
	return db
}

type fixture struct {
	Restaurant models.Restaurant
	Tables     []models.Table
	Pizza      models.MenuItem // stock 10
	Cola       models.MenuItem // stock 2
	Soup       models.MenuItem // unlimited
}

func seedTenant(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	f := fixture{
		Restaurant: models.Restaurant{Name: "Testaurant", Slug: "testaurant", TableCount: 2},
	}
	require.NoError(t, db.Create(&f.Restaurant).Error)

	for n := 1; n <= 2; n++ {
		table := models.Table{
			RestaurantID: f.Restaurant.ID,
			Number:       n,
			PublicToken:  fmt.Sprintf("tok-table-%d", n),
			IsActive:     true,
		}
		require.NoError(t, db.Create(&table).Error)
		f.Tables = append(f.Tables, table)
	}

	f.Pizza = models.MenuItem{
		RestaurantID: f.Restaurant.ID, Name: "Margherita Pizza",
		Price: 12.50, IsActive: true, Stock: intPtr(10), Class: models.ClassFood,
	}
	f.Cola = models.MenuItem{
		RestaurantID: f.Restaurant.ID, Name: "Cola",
		Price: 2.00, IsActive: true, Stock: intPtr(2), Class: models.ClassDrink,
	}
	f.Soup = models.MenuItem{
		RestaurantID: f.Restaurant.ID, Name: "Tomato Soup",
		Price: 5.00, IsActive: true, Class: models.ClassFood,
	}
	require.NoError(t, db.Create(&f.Pizza).Error)
	require.NoError(t, db.Create(&f.Cola).Error)
	require.NoError(t, db.Create(&f.Soup).Error)
	return f
}

func intPtr(v int) *int { return &v }

// recordingNotifier captures emits for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	table  []string
	staff  []string
}

func (r *recordingNotifier) EmitTable(token, event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = append(r.table, event)
}

func (r *recordingNotifier) EmitStaff(restaurantID uint, event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staff = append(r.staff, event)
}

func (r *recordingNotifier) staffEvents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.staff...)
}

func (r *recordingNotifier) tableEvents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.table...)
}
