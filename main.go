package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shopswift/storefront/controllers"
	"github.com/shopswift/storefront/database"
	"github.com/shopswift/storefront/kafka"
	"github.com/shopswift/storefront/models"
	"github.com/shopswift/storefront/payments"
	"github.com/shopswift/storefront/repository"
	"github.com/shopswift/storefront/routes"
	"github.com/shopswift/storefront/services"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// --- Database ---
	db, err := database.Connect(cfg.Postgres)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductAttribute{},
		&models.Review{},
		&models.Coupon{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderSequence{},
	); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}

	// --- Kafka ---
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	// --- Payment gateway ---
	gateway := payments.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentGatewayKey)

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())

	// Structured HTTP request logging
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	})

	// Request timeout middleware
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// --- Dependency injection ---
	productRepo := repository.NewGormProductRepository(db)
	categoryRepo := repository.NewGormCategoryRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	cartRepo := repository.NewCartRepository(redisClient, cfg.CartTTL)

	shipping := services.ShippingPolicy{
		FlatRate:      cfg.ShippingFlatRate,
		FreeThreshold: cfg.FreeShippingThreshold,
	}

	catalogService := services.NewCatalogService(productRepo, categoryRepo, logger)
	couponService := services.NewCouponService(couponRepo, logger)
	cartService := services.NewCartService(cartRepo, productRepo, cfg.TaxRate, shipping, logger)
	orderService := services.NewOrderService(
		orderRepo, productRepo, userRepo,
		couponService, cartService,
		gateway, producer,
		cfg.TaxRate, shipping, cfg.Currency,
		logger,
	)

	catalogController := controllers.NewCatalogController(catalogService)
	couponController := controllers.NewCouponController(couponService)
	cartController := controllers.NewCartController(cartService)
	orderController := controllers.NewOrderController(orderService)
	paymentController := controllers.NewPaymentController(orderService)
	userController := controllers.NewUserController(userRepo, logger)

	routes.Register(r, catalogController, couponController, cartController, orderController, paymentController, userController)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "storefront"})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Storefront started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	log.Println("Storefront stopped gracefully")
}
