package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/config"
	"github.com/yeremiapane/restaurant-reservation/middlewares"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/router"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if ginMode := os.Getenv("GIN_MODE"); ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)
	ensureStaffAccount(db)

	// Optional Redis; nil disables the table-list cache.
	cache := config.NewRedisClient()
	if cache == nil {
		utils.InfoLogger.Println("Redis not configured, table cache disabled")
	}

	rateLimiter := middlewares.NewRateLimiter(50, 1)

	r := router.SetupRouter(db, cache)
	r.Use(rateLimiter.RateLimit())
	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Customer{},
		&models.Table{},
		&models.Reservation{},
		&models.ConfirmationToken{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}

// ensureStaffAccount creates the staff login from STAFF_EMAIL and
// STAFF_PASSWORD when it does not exist yet. Staff access is a role claim,
// not a special-cased identity.
func ensureStaffAccount(db *gorm.DB) {
	email := os.Getenv("STAFF_EMAIL")
	password := os.Getenv("STAFF_PASSWORD")
	if email == "" || password == "" {
		return
	}

	var existing models.Customer
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		utils.ErrorLogger.Printf("Failed to hash staff password: %v", err)
		return
	}

	staff := models.Customer{
		FirstName: "Restaurant",
		LastName:  "Staff",
		Email:     email,
		Password:  string(hashed),
		Phone:     "0000000000",
		Role:      models.RoleStaff,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(&staff).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to create staff account: %v", err)
		return
	}
	utils.InfoLogger.Printf("Staff account created: %s", email)
}
