package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/controllers"
	"github.com/yeremiapane/restaurant-reservation/middlewares"
)

func SetupRouter(db *gorm.DB, cache *redis.Client) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	authCtrl := controllers.NewAuthController(db)
	tableCtrl := controllers.NewTableController(db, cache)
	reservationCtrl := controllers.NewReservationController(db, cache)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      AUTH
	// ----------------------------------------------------------------
	auth := r.Group("/auth")
	auth.Use(middlewares.NewStrictRateLimiter())
	{
		auth.POST("/register", authCtrl.Register)
		auth.POST("/login", authCtrl.Login)
	}
	r.POST("/auth/logout", middlewares.AuthMiddleware(), authCtrl.Logout)

	// ----------------------------------------------------------------
	//                      TABLES
	// ----------------------------------------------------------------
	tables := r.Group("/tables")
	{
		tables.GET("", middlewares.CacheMiddleware(cache, controllers.TableCachePrefix, 30*time.Second), tableCtrl.GetAllTables)
		tables.GET("/:table_id", tableCtrl.GetTableByID)
		tables.PATCH("/:table_id", middlewares.AuthMiddleware(), middlewares.RequireStaff(), tableCtrl.UpdateTableStatus)
	}

	// ----------------------------------------------------------------
	//                      RESERVATIONS
	// ----------------------------------------------------------------
	reservations := r.Group("/reservations")
	{
		reservations.POST("", middlewares.AuthMiddleware(), reservationCtrl.CreateReservation)
		reservations.GET("", reservationCtrl.ListReservations)
		// Summary endpoint: confirmation token + bearer credential are
		// checked inside the handler so the rejection order stays fixed.
		reservations.GET("/:res_id", reservationCtrl.GetReservation)
		reservations.PATCH("/:res_id", middlewares.AuthMiddleware(), middlewares.RequireStaff(), reservationCtrl.UpdateReservation)
		reservations.PATCH("/by-table/:table_id", middlewares.AuthMiddleware(), middlewares.RequireStaff(), reservationCtrl.UpdateReservationByTable)
	}

	// ----------------------------------------------------------------
	//                      STAFF EVENT FEED
	// ----------------------------------------------------------------
	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware())
	{
		ws.GET("", controllers.EventsHandler)
	}

	return r
}
