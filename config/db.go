package config

import (
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the database selected by DATABASE_DRIVER. MySQL is the
// production target; the sqlite fallback keeps local development and CI
// free of external services.
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DATABASE_DRIVER")
	dsn := os.Getenv("DATABASE_DSN")

	switch driver {
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		if dsn == "" {
			dsn = "foodstream.db"
		}
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
}
