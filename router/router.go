package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/foodstream/foodstream/controllers"
	"github.com/foodstream/foodstream/events"
	"github.com/foodstream/foodstream/middlewares"
	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/services"
)

// Deps carries everything the routes need. Limiter is optional; without
// it the guest endpoints run unthrottled (tests, single-node dev).
type Deps struct {
	DB      *gorm.DB
	Hub     *events.Hub
	Cart    *services.CartService
	Chat    *services.ChatService
	Signals *services.SignalService
	Limiter *middlewares.RedisRateLimiter
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.CORSMiddleware())
	r.Use(middlewares.SecurityHeaders())

	cart := controllers.NewCartController(d.DB, d.Cart)
	orders := controllers.NewOrderController(d.DB, d.Cart)
	menu := controllers.NewMenuController(d.DB)
	categories := controllers.NewCategoryController(d.DB)
	tables := controllers.NewTableController(d.DB)
	users := controllers.NewUserController(d.DB)
	signals := controllers.NewSignalController(d.DB, d.Signals)
	chat := controllers.NewChatController(d.DB, d.Chat)
	ws := controllers.NewWSController(d.DB, d.Hub, d.Cart)

	throttle := func() gin.HandlerFunc {
		if d.Limiter != nil {
			return d.Limiter.Middleware()
		}
		return func(c *gin.Context) { c.Next() }
	}()

	api := r.Group("/api")
	{
		api.POST("/auth/login", middlewares.LoginRateLimiter(rate.Every(time.Second), 5), users.Login)

		guest := api.Group("/r/:slug")
		guest.Use(throttle)
		{
			guest.GET("/menu", menu.PublicMenu)

			table := guest.Group("/t/:token")
			{
				table.GET("/cart", cart.GetCart)
				table.POST("/cart/items", cart.UpdateItem)
				table.POST("/submit", cart.Submit)
				table.POST("/reset", cart.Reset)
				table.POST("/call-waiter", signals.Raise)
				table.GET("/chat", chat.History)
				table.POST("/chat", chat.Post)
			}
		}

		api.POST("/orders/:id/cancel", throttle, cart.CancelOrder)

		staff := api.Group("/admin")
		staff.Use(middlewares.AuthMiddleware())
		{
			staff.GET("/orders", orders.ListOrders)
			staff.GET("/orders/:id", orders.GetOrder)
			staff.PATCH("/orders/:id/status", orders.SetStatus)
			staff.POST("/orders/:id/pay", orders.PayItems)
			staff.PATCH("/orders/:id/bot", orders.ToggleBot)
			staff.POST("/tickets", orders.CreateTicket)
			staff.GET("/board", orders.TableBoard)
			staff.POST("/tables/:id/reset", orders.ResetTable)

			staff.GET("/signals", signals.Active)
			staff.POST("/signals/:id/resolve", signals.Resolve)

			admin := staff.Group("")
			admin.Use(middlewares.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
			{
				admin.GET("/menu", menu.ListItems)
				admin.POST("/menu", menu.CreateItem)
				admin.PUT("/menu/:id", menu.UpdateItem)
				admin.PATCH("/menu/:id/stock", menu.SetStock)
				admin.DELETE("/menu/:id", menu.DeleteItem)

				admin.GET("/categories", categories.List)
				admin.POST("/categories", categories.Create)
				admin.PUT("/categories/:id", categories.Update)
				admin.DELETE("/categories/:id", categories.Delete)

				admin.GET("/tables", tables.ListTables)
				admin.PUT("/table-count", tables.SetTableCount)
				admin.PATCH("/tables/:id/active", tables.SetActive)
				admin.GET("/tables/:id/qr", tables.QRCode)

				admin.GET("/staff", users.ListStaff)
				admin.POST("/staff", users.CreateStaff)
				admin.PATCH("/staff/:id/active", users.SetStaffActive)

				admin.GET("/audit", orders.AuditTrail)
			}

			platform := staff.Group("")
			platform.Use(middlewares.RequireSuperAdmin())
			{
				platform.POST("/restaurants", users.ProvisionRestaurant)
			}
		}
	}

	r.GET("/ws/r/:slug/t/:token", ws.TableSocket)
	r.GET("/ws/staff", ws.StaffSocket)

	return r
}
