package main

import (
	"context"                            // context package is needed for Redis operations
	"laundry_system/internal/api"        // Custom package for API handlers
	"laundry_system/internal/config"     // Custom package for configuration
	"laundry_system/internal/middleware" // Custom package for middleware
	"laundry_system/internal/storage"    // Custom package for blob storage
	"log"                                // log package is needed for logging

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	// TranslateError turns driver duplicate-key errors into gorm.ErrDuplicatedKey
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Setup blob storage for QR images, videos and thumbnails
	store, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		logrus.Fatalf("failed to connect to blob storage: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes (open)
	r.POST("/auth/register", api.RegisterHandler(db))            // Registration endpoint
	r.POST("/auth/login", api.LoginHandler(db, cfg.JWTSecret))   // Login endpoint

	auth := middleware.JWTAuthMiddleware(db, cfg.JWTSecret) // Shared JWT gate

	// User routes (protected)
	userGroup := r.Group("/users")
	userGroup.Use(auth)
	userGroup.GET("/me", api.MeHandler())                              // Current profile endpoint
	userGroup.PUT("/me", api.UpdateProfileHandler(db))                 // Profile update endpoint
	userGroup.POST("/change-password", api.ChangePasswordHandler(db))  // Password change endpoint
	// Admin-only user listings
	userGroup.GET("/customers", middleware.AdminOnlyMiddleware(), api.ListCustomersHandler(db, redisClient))
	userGroup.GET("/staff", middleware.AdminOnlyMiddleware(), api.ListStaffHandler(db, redisClient))

	// Laundromat routes (protected, writes admin only)
	laundromatGroup := r.Group("/laundromats")
	laundromatGroup.Use(auth)
	laundromatGroup.GET("", api.ListLaundromatsHandler(db, redisClient))    // List endpoint
	laundromatGroup.GET("/:id", api.GetLaundromatHandler(db))               // Detail endpoint
	laundromatGroup.GET("/:id/receipts", api.LaundromatReceiptsHandler(db)) // Receipts sub-listing
	laundromatGroup.GET("/:id/staff", api.LaundromatStaffHandler(db))       // Staff sub-listing
	laundromatGroup.POST("", middleware.AdminOnlyMiddleware(), api.CreateLaundromatHandler(db, redisClient))
	laundromatGroup.PUT("/:id", middleware.AdminOnlyMiddleware(), api.UpdateLaundromatHandler(db, redisClient))
	laundromatGroup.DELETE("/:id", middleware.AdminOnlyMiddleware(), api.DeleteLaundromatHandler(db, redisClient))

	// Receipt routes (protected, scoped by role; writes staff/admin)
	receiptGroup := r.Group("/receipts")
	receiptGroup.Use(auth)
	receiptGroup.GET("", api.ListReceiptsHandler(db))                       // List endpoint
	receiptGroup.GET("/active", api.ActiveReceiptsHandler(db, redisClient)) // Active listing endpoint
	receiptGroup.GET("/my", api.MyReceiptsHandler(db))                      // Caller's own receipts
	receiptGroup.GET("/:id", api.GetReceiptHandler(db, store))              // Detail endpoint
	receiptGroup.GET("/:id/qr", api.ReceiptQRHandler(db, store))            // QR code endpoint
	receiptGroup.POST("", middleware.StaffOrAdminMiddleware(), api.CreateReceiptHandler(db, store, redisClient))
	receiptGroup.PATCH("/:id/status", middleware.StaffOrAdminMiddleware(), api.UpdateStatusHandler(db, store, redisClient))
	receiptGroup.POST("/:id/complete", middleware.StaffOrAdminMiddleware(), api.CompleteReceiptHandler(db, store, redisClient))

	// Video routes (protected, scoped by role; upload staff/admin)
	videoGroup := r.Group("/videos")
	videoGroup.Use(auth)
	videoGroup.GET("", api.ListVideosHandler(db, store))                  // List endpoint
	videoGroup.GET("/by-receipt", api.VideosByReceiptHandler(db, store))  // Receipt-scoped listing
	videoGroup.GET("/:id", api.GetVideoHandler(db, store))                // Detail endpoint
	videoGroup.POST("", middleware.StaffOrAdminMiddleware(), api.UploadVideoHandler(db, store))

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
