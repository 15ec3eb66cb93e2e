package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/mediamorph/mediamorph-backend/internal/config"
	"github.com/mediamorph/mediamorph-backend/internal/handler"
	"github.com/mediamorph/mediamorph-backend/internal/middleware"
	"github.com/mediamorph/mediamorph-backend/internal/repository"
	"github.com/mediamorph/mediamorph-backend/internal/service"
	"github.com/mediamorph/mediamorph-backend/pkg/database"
	"github.com/mediamorph/mediamorph-backend/pkg/email"
	"github.com/mediamorph/mediamorph-backend/pkg/logger"
	"github.com/mediamorph/mediamorph-backend/pkg/media"
	"github.com/mediamorph/mediamorph-backend/pkg/payment"
	"github.com/mediamorph/mediamorph-backend/pkg/storage"
	"github.com/mediamorph/mediamorph-backend/pkg/utils"
)

func main() {
	// Load .env (optional in production, required locally)
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	zapLogger, err := logger.New()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	// Initialize database
	db := database.NewDatabase(cfg.Database.URL)

	// Run migrations and seed credit packages
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	imageRepo := repository.NewImageRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	packageRepo := repository.NewCreditPackageRepository(db)

	// Vendor clients
	r2Storage, err := storage.NewR2Storage(cfg)
	if err != nil {
		log.Fatal("Failed to initialize R2 storage:", err)
	}
	cloudinary := media.NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	gradio := media.NewGradioClient(cfg.Gradio.Space)
	emailService := email.NewEmailService(cfg.Resend.APIKey, cfg.Resend.From)
	stripeService := payment.NewStripeService(cfg.Stripe.SecretKey, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)

	// Services
	userService := service.NewUserService(userRepo, ledgerRepo, imageRepo, videoRepo, txnRepo)
	txnService := service.NewTransactionService(txnRepo, ledgerRepo)
	mediaService := service.NewMediaService(
		userRepo,
		userService,
		imageRepo,
		videoRepo,
		cloudinary,
		gradio,
		r2Storage,
		zapLogger,
	)
	paymentService := service.NewPaymentService(
		stripeService,
		userService,
		txnService,
		txnRepo,
		packageRepo,
		emailService,
		zapLogger,
	)

	validator := utils.NewValidator()

	// Handlers
	userHandler := handler.NewUserHandler(userService, txnService)
	mediaHandler := handler.NewMediaHandler(mediaService, userService, validator)
	paymentHandler := handler.NewPaymentHandler(paymentService, userService, validator, cfg.Stripe.WebhookSecret, zapLogger)

	// Router
	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "https://mediamorph.app, https://www.mediamorph.app, http://localhost:3000",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	// Stripe webhook (public, verified by signature)
	api.Post("/payments/webhook", paymentHandler.HandleStripeWebhook)

	// Public routes (must be registered before the auth middleware)
	api.Get("/payments/packages", paymentHandler.GetCreditPackages)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		user := api.Group("/user")
		user.Post("/sync", userHandler.SyncUser)
		user.Get("/profile", userHandler.GetMyProfile)
		user.Get("/credits", userHandler.GetCredits)
		user.Get("/dashboard", userHandler.GetDashboard)

		payments := api.Group("/payments")
		payments.Post("/checkout", paymentHandler.CreateCheckoutSession)

		mediaRoutes := api.Group("/media")
		mediaRoutes.Post("/image-upload", mediaHandler.UploadImage)
		mediaRoutes.Post("/video-upload", mediaHandler.UploadVideo)
		mediaRoutes.Post("/generate-image", mediaHandler.GenerateImage)
		mediaRoutes.Post("/image-transform", mediaHandler.TransformImage)
		mediaRoutes.Post("/generative-replace", mediaHandler.GenerativeReplace)
		mediaRoutes.Post("/image-extender", mediaHandler.ExtendImage)
		mediaRoutes.Post("/remove-background", mediaHandler.RemoveBackground)
		mediaRoutes.Get("/images", mediaHandler.GetImages)
		mediaRoutes.Get("/videos", mediaHandler.GetVideos)
	}

	log.Fatal(app.Listen(":" + cfg.Port))
}
