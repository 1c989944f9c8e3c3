package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"golang.org/x/crypto/bcrypt"

	"hanythrift/internal/config"
	"hanythrift/internal/database"
	"hanythrift/internal/handlers"
	"hanythrift/internal/middleware"
	"hanythrift/internal/models"
	"hanythrift/internal/repositories"
	"hanythrift/internal/services"
	"hanythrift/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	// --- Database ---
	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ ---
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
	}
	defer mqClient.Close()

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	disputeRepo := repositories.NewGORMDisputeRepository(db)
	withdrawalRepo := repositories.NewGORMWithdrawalRepository(db)
	refreshRepo := repositories.NewGORMRefreshTokenRepository(db)

	seedCatalog(userRepo, productRepo)

	// --- Services ---
	tokenService := services.NewTokenService(userRepo, refreshRepo, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, cartRepo, mqClient, cfg.ProtectionWindow)
	disputeService := services.NewDisputeService(disputeRepo, orderRepo, mqClient, cfg.ProtectionWindow, cfg.SellerResponseWindow)
	withdrawalService := services.NewWithdrawalService(withdrawalRepo, orderRepo, disputeRepo, mqClient, cfg.WithdrawalTokenTTL)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(tokenService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	disputeHandler := handlers.NewDisputeHandler(disputeService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)

	// --- Fiber App ---
	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")

	// Public routes: auth, product browsing, payout redemption.
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	withdrawalHandler.RegisterRoutes(apiV1)

	// Protected routes.
	protected := apiV1.Group("", middleware.AuthRequired(tokenService))
	authHandler.RegisterProtectedRoutes(protected)
	productHandler.RegisterProtectedRoutes(protected)
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)
	disputeHandler.RegisterRoutes(protected)
	withdrawalHandler.RegisterProtectedRoutes(protected)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Escrow event consumer ---
	go func() {
		log.Println("Starting RabbitMQ consumer for escrow events...")
		messageHandler := func(msg amqp.Delivery) error {
			log.Printf("Received escrow event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
			// Downstream side effects (seller notification emails, analytics)
			// hang off this queue.
			return nil
		}
		if consumerErr := mqClient.ConsumeEscrowEvents(messageHandler); consumerErr != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
		}
	}()

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// seedCatalog populates a demo seller and a starter catalog when the product
// table is empty.
func seedCatalog(userRepo repositories.UserRepository, productRepo repositories.ProductRepository) {
	existing, err := productRepo.List(repositories.ProductFilter{Limit: 1})
	if err != nil || len(existing) > 0 {
		return
	}

	seller := &models.User{
		Username: "hanythrift",
		Email:    "seller@hanythrift.example",
		IsSeller: true,
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("changeme123"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing seed password: %v", err)
		return
	}
	seller.Password = string(hash)
	if err := userRepo.Create(seller); err != nil {
		log.Printf("Error seeding seller account: %v", err)
		return
	}

	products := []models.Product{
		{Name: "Vintage Band T-Shirt", Description: "Authentic vintage band t-shirt from the 90s. Slight fading adds to the vintage appeal.", PriceCents: 65000, Category: "Clothing", Stock: 5},
		{Name: "Flannel Shirt", Description: "Cozy flannel shirt in red and black plaid. Perfect for layering in cooler weather.", PriceCents: 75000, Category: "Clothing", Stock: 3},
		{Name: "Nike Air Jordan 1", Description: "Classic Air Jordan 1 in red and black colorway. Some signs of wear but still in great condition.", PriceCents: 450000, Category: "Footwear", Stock: 1},
		{Name: "Doc Martens Boots", Description: "Iconic Doc Martens boots in black. Broken in but still have years of life left.", PriceCents: 320000, Category: "Footwear", Stock: 2},
		{Name: "Vintage Casio Watch", Description: "Classic Casio digital watch. New battery installed, works perfectly.", PriceCents: 120000, Category: "Accessories", Stock: 1},
		{Name: "Ray-Ban Sunglasses", Description: "Authentic Ray-Ban Wayfarer sunglasses with case. Minor scratches on the case only.", PriceCents: 250000, Category: "Accessories", Stock: 2},
		{Name: "Vintage Denim Jacket", Description: "Classic vintage denim jacket with slight distressing. Authentic 90s style.", PriceCents: 129999, Category: "Outerwear", Stock: 3},
		{Name: "Levi's 501 Jeans", Description: "Classic Levi's 501 jeans in dark wash. Barely worn, excellent condition.", PriceCents: 125000, Category: "Bottoms", Stock: 4},
		{Name: "Wool Beanie", Description: "Soft wool beanie in charcoal gray. Warm and comfortable for winter.", PriceCents: 45000, Category: "Headwear", Stock: 8},
	}
	for i := range products {
		products[i].SellerID = seller.ID
		if err := productRepo.Create(&products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		} else {
			log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
		}
	}
}
