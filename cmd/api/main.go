package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"dayzone_backend/internal/controller"
	"dayzone_backend/internal/middleware"
	"dayzone_backend/internal/model"
	"dayzone_backend/internal/repository"
	"dayzone_backend/internal/service"
	"dayzone_backend/pkg/config"
	"dayzone_backend/pkg/cron"
	"dayzone_backend/pkg/database"
	"dayzone_backend/pkg/email"
	"dayzone_backend/pkg/seed"
	"dayzone_backend/pkg/utils/jwt"
)

func setupRoutes(app *fiber.App, auth *controller.AuthController, plans *controller.PlanController, zones *controller.ZoneController, subs *controller.SubscriptionController) {
	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", auth.Register)
	authGroup.Post("/login", auth.Login)
	api.Get("/me", middleware.AuthMiddleware(), auth.GetMe)

	// Plan routes
	api.Get("/plans/:date", plans.GetPlan)
	api.Patch("/plans/:date", plans.UpdatePlan)

	// Zone read routes
	zoneGroup := api.Group("/zones")
	zoneGroup.Get("/core-memories", zones.GetCoreMemories)
	zoneGroup.Get("/deep-work", zones.GetDeepWork)
	zoneGroup.Get("/little-joys", zones.GetLittleJoys)
	zoneGroup.Get("/make-it-happen", zones.GetMakeItHappen)
	zoneGroup.Get("/quick-wins", zones.GetQuickWins)
	zoneGroup.Get("/recharge-zones", zones.GetRecharge)
	zoneGroup.Get("/progress-log", zones.GetProgressLog)
	zoneGroup.Get("/reflections-today", zones.GetReflections)

	// Billing routes
	api.Post("/stripe/checkout", middleware.AuthMiddleware(), subs.CreateCheckoutSession)
	api.Post("/stripe/webhook", subs.HandleStripeWebhook)
	api.Get("/user/subscription", middleware.AuthMiddleware(), subs.GetMySubscription)
}

func main() {
	cfg := config.Load()

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	jwt.Init(cfg.JWT.Secret)

	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		if err := email.InitEmailService(apiKey); err != nil {
			log.Fatal("Could not initialize email service:", err)
		}
	} else {
		log.Println("RESEND_API_KEY not set, subscription emails disabled")
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.DailyPlan{},
		&model.DeepWorkItem{},
		&model.QuickWin{},
		&model.MakeItHappenTask{},
		&model.RechargeZone{},
		&model.LittleJoy{},
		&model.CoreMemory{},
		&model.Project{},
		&model.ProjectUpdate{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	db := database.GetDB()

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		seed.SeedDemoData(db)
	}

	planRepo := repository.NewPlanRepository(db)
	zoneService := service.NewZoneReadService(db)
	subService := service.NewSubscriptionService(db)

	authController := controller.NewAuthController(db)
	planController := controller.NewPlanController(planRepo)
	zoneController := controller.NewZoneController(zoneService)
	subController := controller.NewSubscriptionController(db, subService, cfg)

	cron.InitSubscriptionExpiryCron(db)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app, authController, planController, zoneController, subController)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
