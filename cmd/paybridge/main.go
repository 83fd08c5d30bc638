package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/zorinapay/paybridge/app/models"
	"github.com/zorinapay/paybridge/internal/pkg/env"
	"github.com/zorinapay/paybridge/internal/pkg/router"
	"github.com/zorinapay/paybridge/internal/pkg/sellerstore"
	"github.com/zorinapay/paybridge/internal/pkg/square"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", ""), env.GetEnv("APP_PORT", "8080")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	store := sellerstore.NewStoreFromEnv()
	client := square.NewClientFromEnv()

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization,x-merchant-id",
		AllowCredentials: true,
	}))

	// HTTPS enforcement behind the production proxy
	if env.IsProduction() {
		app.Use(func(c *fiber.Ctx) error {
			if c.Get("x-forwarded-proto") != "https" {
				return c.Redirect("https://"+c.Hostname()+c.OriginalURL(), fiber.StatusMovedPermanently)
			}
			return c.Next()
		})
	}

	router.InstallRouter(app, store, client)

	seedDefaultSeller(store)

	return app
}

// seedDefaultSeller bootstraps the pre-configured merchant from the
// environment so single-tenant deployments work without onboarding.
func seedDefaultSeller(store sellerstore.Store) {
	merchantID := env.GetEnv("DEFAULT_MERCHANT_ID", "")
	accessToken := env.GetEnv("DEFAULT_ACCESS_TOKEN", "")
	locationID := env.GetEnv("DEFAULT_LOCATION_ID", "")
	if merchantID == "" || accessToken == "" || locationID == "" {
		return
	}

	// Automation webhooks sometimes push tokens with a "Bearer " prefix
	if strings.HasPrefix(strings.ToLower(accessToken), "bearer ") {
		accessToken = strings.TrimSpace(accessToken[7:])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seeded := &models.Seller{
		MerchantID:  merchantID,
		AccessToken: accessToken,
		Locations: []models.Location{{
			ID:     locationID,
			Name:   env.GetEnv("DEFAULT_LOCATION_NAME", "Default Location"),
			Status: models.LocationStatusActive,
		}},
	}
	if err := seeded.Validate(); err != nil {
		log.Printf("default seller config invalid: %v", err)
		return
	}
	if err := store.Put(ctx, seeded); err != nil {
		log.Printf("seeding default seller failed: %v", err)
		return
	}
	log.Printf("default seller initialized with merchant ID: %s", merchantID)
}

func corsOrigins() string {
	if env.IsProduction() {
		return env.GetEnv("FRONTEND_URL", "")
	}
	return "http://localhost:3000,http://localhost:8080"
}
