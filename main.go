package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/cache"
	"github.com/yuchialin/estate-app/config"
	"github.com/yuchialin/estate-app/middlewares"
	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/router"
	"github.com/yuchialin/estate-app/utils"
)

func init() {
	// Load .env before anything reads the environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InfoLogger = logrus.New()
	utils.ErrorLogger = logrus.New()

	utils.InfoLogger.SetOutput(os.Stdout)
	utils.ErrorLogger.SetOutput(os.Stderr)

	utils.InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
	utils.ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}

	db, err := cfg.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Cache is best-effort: without Redis the process still serves, every
	// read is a miss against the in-process store.
	var store cache.Store
	redisStore, err := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		utils.ErrorLogger.Printf("Redis unavailable at %s, falling back to in-memory cache: %v", cfg.RedisAddr, err)
		store = cache.NewMemoryStore()
	} else {
		utils.InfoLogger.Printf("Redis connection established to %s", cfg.RedisAddr)
		store = redisStore
	}

	r := router.SetupRouter(db, router.Options{
		Cache:          store,
		Timezone:       cfg.Timezone,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      middlewares.NewRateLimiter(50, 1).RateLimit(),
	})

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Estate{},
		&models.Room{},
		&models.Tenant{},
		&models.Rental{},
		&models.ElectricRecord{},
		&models.Accounting{},
		&models.CheckoutRecord{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
