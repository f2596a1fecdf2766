package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/config"
	"github.com/foodstream/foodstream/events"
	"github.com/foodstream/foodstream/middlewares"
	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/router"
	"github.com/foodstream/foodstream/services"
	"github.com/foodstream/foodstream/utils"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()
	utils.InitLogger()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("database: %v", err)
	}
	utils.InitDB(db)

	if err := autoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("migrate: %v", err)
	}
	if err := seedSuperAdmin(db); err != nil {
		utils.ErrorLogger.Fatalf("seed: %v", err)
	}

	hub := events.NewHub()
	var notifier events.Notifier = hub
	if url := os.Getenv("AMQP_URL"); url != "" {
		pub, err := events.NewAMQPPublisher(url)
		if err != nil {
			utils.ErrorLogger.Printf("amqp disabled: %v", err)
		} else {
			defer pub.Close()
			notifier = events.Fanout{hub, pub}
		}
	}

	cart := services.NewCartService(db, notifier)
	signals := services.NewSignalService(db, cart, notifier)

	chat := services.NewChatService(db, cart, assistantFromEnv(), notifier)
	chat.Start(chatWorkers())
	defer chat.Stop()

	sweeper, err := services.NewSweeper(db, notifier)
	if err != nil {
		utils.ErrorLogger.Fatalf("sweeper: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	deps := router.Deps{
		DB:      db,
		Hub:     hub,
		Cart:    cart,
		Chat:    chat,
		Signals: signals,
		Limiter: limiterFromEnv(),
	}
	r := router.SetupRouter(deps)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatalf("server: %v", err)
	}
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
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
	)
}

// seedSuperAdmin creates the platform account on first boot when the env
// provides credentials.
func seedSuperAdmin(db *gorm.DB) error {
	username := os.Getenv("SUPER_ADMIN_USERNAME")
	password := os.Getenv("SUPER_ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleSuperAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Create(&models.User{
		Username: username,
		Password: string(hash),
		Role:     models.RoleSuperAdmin,
		IsActive: true,
	}).Error
}

func assistantFromEnv() services.Assistant {
	if a := services.NewOpenAIAssistantFromEnv(); a != nil {
		return a
	}
	return nil
}

func limiterFromEnv() *middlewares.RedisRateLimiter {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return middlewares.NewRedisRateLimiter(client, 60, time.Minute)
}

func chatWorkers() int {
	if raw := os.Getenv("CHAT_WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 4
}
