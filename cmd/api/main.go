package main

import (
	"context"
	"os"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/ledger"
	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/storage"
	"backend/internal/websocket"
	"backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Garage Ledger API
// @version         1.0
// @description     Vehicle ownership and workshop invoicing tracker.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		// Running without a .env file is fine; environment variables win anyway.
	}

	log := logger.New(getenv("LOG_LEVEL", "info"), getenv("LOG_FORMAT", "console"))

	dsn := "postgres://" + getenv("DB_USER", "postgres") +
		":" + getenv("DB_PASSWORD", "postgres") +
		"@" + getenv("DB_HOST", "localhost") +
		":" + getenv("DB_PORT", "5432") +
		"/" + getenv("DB_NAME", "postgres") +
		"?sslmode=" + getenv("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Load ledgers from their persisted snapshots
	store := storage.NewGormStore(db)
	ctx := context.Background()

	fleet, err := ledger.NewVehicleLedger(ctx, store,
		ledger.WithLogger(log), ledger.WithEvents(wsHub))
	if err != nil {
		log.Fatal().Err(err).Msg("loading vehicle ledger failed")
	}
	defer fleet.Close()

	invoicing, err := ledger.NewInvoiceLedger(ctx, store,
		ledger.WithLogger(log), ledger.WithEvents(wsHub))
	if err != nil {
		log.Fatal().Err(err).Msg("loading invoice ledger failed")
	}
	defer invoicing.Close()

	authService := service.NewAuthService(db)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	carHandler := handler.NewCarHandler(fleet)
	invoiceHandler := handler.NewInvoiceHandler(invoicing)
	customerHandler := handler.NewCustomerHandler(invoicing)

	// Set up Gin Router
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	carHandler.RegisterRoutes(router.Group(""))
	invoiceHandler.RegisterRoutes(router.Group(""))
	customerHandler.RegisterRoutes(router.Group(""))

	port := getenv("PORT", "8080")
	log.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
