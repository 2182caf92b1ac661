package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dare-achievement-system/handlers"
	"dare-achievement-system/middleware"
	"dare-achievement-system/models"
	"dare-achievement-system/services"
	"dare-achievement-system/utils"
	"dare-achievement-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // badge artwork uploads
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.UserStats{},
		&models.PartnershipStats{},
		&models.Partnership{},
		&models.AppliedEvent{},
		&models.DareCompletion{},
		&models.VisitedScreen{},
		&models.BadgeUnlock{},
		&models.BadgeArtwork{},
		&models.CompetitionMonth{},
		&models.CompetitionCheckpoint{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	catalog := services.DefaultCatalog()
	engine := services.NewAchievementEngine(db, catalog)

	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("ACHIEVEMENT_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("ACHIEVEMENT_SERVICE_TOKEN environment variable not set")
	}

	syncWorker := workers.NewPartnershipSyncWorker(db, syncServiceURL, "/api/v1/public/partnerships", serviceToken)
	notifyClient := workers.NewNotificationClient(db, catalog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Partnership Sync Worker...")
		syncWorker.Start(ctx)
	}()
	go workers.PollUnlocks(ctx, notifyClient, 15*time.Second)

	engine.StartCompetitionScheduler()

	// ✅ Setup routes — enforced Gateway auth on everything
	handlers.SetupEventRoutes(app, engine)
	handlers.SetupBadgeRoutes(app, engine)
	handlers.SetupCompetitionRoutes(app, engine)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Printf("✅ Badge catalog loaded (%d definitions)", catalog.Len())
	log.Println("✅ Partnership Sync Worker running")
	log.Println("✅ Badge notification dispatch running (every 15s)")
	log.Println("✅ Competition scheduler running")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
