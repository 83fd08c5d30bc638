package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zorinapay/paybridge/app/controllers"
	"github.com/zorinapay/paybridge/internal/pkg/sellerstore"
	"github.com/zorinapay/paybridge/internal/pkg/square"
)

type HttpRouter struct {
	store  sellerstore.Store
	client *square.Client
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Wire controllers to their store and provider client
	controllers.InitializeSellerControllers(h.store, h.client)

	app.Get("/health", controllers.HandleHealth)

	// Seller onboarding
	app.Get("/oauth/authorize", controllers.HandleOAuthAuthorize)
	app.Get("/oauth/callback", controllers.HandleOAuthCallback)

	// Provider events, verified via raw-body HMAC
	app.Post("/webhooks/square", controllers.HandleSquareWebhook)
}

func NewHttpRouter(store sellerstore.Store, client *square.Client) *HttpRouter {
	return &HttpRouter{store: store, client: client}
}
