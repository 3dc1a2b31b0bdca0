package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/freelancehub/backend/internal/cache"
	"github.com/freelancehub/backend/internal/config"
	"github.com/freelancehub/backend/internal/db"
	"github.com/freelancehub/backend/internal/handlers"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis not reachable:", err)
	}
	appCache := cache.New(rdb)
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	hub := realtime.NewHub()
	go hub.Run()

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.FreelancerProfile{},
		&models.ClientProfile{},
		&models.Project{},
		&models.Application{},
		&models.MeetingRequest{},
		&models.Meeting{},
		&models.Rating{},
	); err != nil {
		log.Fatal(err)
	}

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	api := app.Group("/api")
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	authH := handlers.NewAuthHandler(gdb, cfg.JWTSecret, cfg.JWTExpiresMin)
	authH.Routes(api, protected)

	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	googleH.Routes(api)

	projectH := handlers.NewProjectHandler(gdb, appCache, hub, cacheTTL)
	projectH.Routes(api, protected)

	applicationH := handlers.NewApplicationHandler(gdb, appCache, hub)
	applicationH.Routes(protected)

	meetingH := handlers.NewMeetingHandler(gdb, appCache, hub)
	meetingH.Routes(protected)

	ratingH := handlers.NewRatingHandler(gdb, appCache, hub)
	ratingH.Routes(api, protected)

	dashboardH := handlers.NewDashboardHandler(gdb, appCache, cacheTTL)
	dashboardH.Routes(protected)

	// WebSocket upgrade happens outside the JWT middleware; the handler
	// authenticates via the token query parameter.
	wsH := &handlers.WSHandler{Hub: hub, JWTSecret: cfg.JWTSecret}
	app.Get("/ws/events", websocket.New(wsH.Events))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
