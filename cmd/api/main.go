package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/fikhidmatik/artisan_booking/configs"
	"github.com/fikhidmatik/artisan_booking/database"
	"github.com/fikhidmatik/artisan_booking/database/repository"
	"github.com/fikhidmatik/artisan_booking/handlers"
	"github.com/fikhidmatik/artisan_booking/jobs"
	"github.com/fikhidmatik/artisan_booking/middleware"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/fikhidmatik/artisan_booking/notifications"
	"github.com/fikhidmatik/artisan_booking/payments"
	"github.com/fikhidmatik/artisan_booking/routes"
	"github.com/fikhidmatik/artisan_booking/services"
	"github.com/fikhidmatik/artisan_booking/utils"
	"github.com/fikhidmatik/artisan_booking/websocket"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := utils.NewLogger(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}

	var redisClient *redis.Client
	tokenCache := payments.TokenCache(payments.NewMemoryTokenCache())
	if cfg.RedisConfigured() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		tokenCache = payments.NewRedisTokenCache(redisClient)
	}

	hub := websocket.NewHub(log)
	var mailer notifications.Mailer
	if brevo := notifications.NewBrevoService(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName, log); brevo != nil {
		mailer = brevo
	}
	deliverer := notifications.NewDeliverer(
		repository.NewNotificationRepo(db),
		repository.NewUserRepo(db),
		hub,
		mailer,
		log,
	)

	var dispatcher notifications.Dispatcher
	var worker *asynq.Server
	if cfg.RedisConfigured() {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		queueClient := asynq.NewClient(redisOpt)
		defer queueClient.Close()
		dispatcher = notifications.NewQueueDispatcher(queueClient, log)

		worker = notifications.NewWorker(redisOpt)
		if err := worker.Start(notifications.NewServeMux(deliverer, log)); err != nil {
			log.Fatal("Notification worker failed to start", zap.Error(err))
		}
		log.Info("Notification worker started", zap.String("queue", notifications.QueueName))
	} else {
		dispatcher = notifications.NewInlineDispatcher(deliverer, log)
		log.Warn("REDIS_ADDR not set, delivering notifications inline")
	}

	processors := map[models.PaymentMethod]payments.Processor{}
	if cfg.PayPalConfigured() {
		processors[models.MethodPayPal] = payments.NewPayPalClient(payments.PayPalConfig{
			BaseURL:      cfg.PayPalBaseURL(),
			ClientID:     cfg.PayPalClientID,
			ClientSecret: cfg.PayPalClientSecret,
			BrandName:    cfg.AppName,
			ReturnURL:    cfg.AppURL + "/payment/success",
			CancelURL:    cfg.AppURL + "/payment/cancel",
			Cache:        tokenCache,
		})
	} else {
		log.Warn("PayPal credentials missing, paypal payments disabled")
	}
	if cfg.StripeSecretKey != "" {
		processors[models.MethodCard] = payments.NewStripeClient(cfg.StripeSecretKey, nil)
	}

	converter, err := services.NewCurrencyConverter(cfg.HomeCurrency, cfg.SettlementCurrency, cfg.SettlementRate)
	if err != nil {
		log.Fatal("Invalid currency settings", zap.Error(err))
	}

	bookingSvc := services.NewBookingService(db, dispatcher, log)
	paymentSvc := services.NewPaymentService(db, services.PaymentDeps{
		Bookings:   bookingSvc,
		Processors: processors,
		Converter:  converter,
		Notifier:   dispatcher,
	}, log)
	reviewSvc := services.NewReviewService(db, dispatcher, log)
	adminSvc := services.NewAdminService(db, reviewSvc, log)
	notificationSvc := services.NewNotificationService(db)

	scheduler, err := jobs.Start([]jobs.Schedule{
		{Spec: cfg.CronRatingSweep, Name: "rating-sweep", Run: jobs.RatingSweep(reviewSvc, log)},
		{Spec: cfg.CronStalePayments, Name: "stale-payments", Run: jobs.StalePaymentReport(paymentSvc, log)},
	}, log)
	if err != nil {
		log.Fatal("Cron schedule rejected", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:       cfg.AppName,
		CaseSensitive: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			log.Error("Request error", zap.Error(err), zap.String("path", c.Path()), zap.String("method", c.Method()))
			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AppURL,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   cfg.TimeZone,
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.Setup(app, routes.Handlers{
		Bookings:      handlers.NewBookingHandler(bookingSvc, log),
		Payments:      handlers.NewPaymentHandler(paymentSvc, log),
		Reviews:       handlers.NewReviewHandler(reviewSvc, log),
		Notifications: handlers.NewNotificationHandler(notificationSvc, hub, log),
		Admin:         handlers.NewAdminHandler(adminSvc, reviewSvc, log),
		Health:        handlers.NewHealthHandler(db, redisClient),
	}, routes.Auth{
		Protected: middleware.Protected(cfg.JWTSecret),
		Socket:    middleware.ProtectedQuery(cfg.JWTSecret),
		Admin:     middleware.RoleRequired(models.RoleAdmin),
	}, middleware.RateLimit(cfg.RateLimitPerMin, log))

	go func() {
		log.Info("Server is running", zap.String("port", cfg.AppPort))
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	<-scheduler.Stop().Done()
	if worker != nil {
		worker.Shutdown()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
