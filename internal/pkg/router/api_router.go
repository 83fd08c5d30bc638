package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/zorinapay/paybridge/app/controllers"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        100,
		Expiration: 15 * time.Minute,
	}))

	api.Get("/health", controllers.HandleHealth)
	api.Get("/config", controllers.HandleConfig)
	api.Get("/init", controllers.HandleInit)

	// Token lifecycle
	api.Post("/update-token", controllers.HandleUpdateToken)
	api.Post("/update-env", controllers.HandleUpdateEnv)
	api.Get("/token-status", controllers.HandleTokenStatus)

	// Resource proxy
	api.Get("/locations", controllers.HandleLocations)
	api.Get("/customers/search", controllers.HandleCustomerSearch)
	api.Post("/customers/search", controllers.HandleCustomerSearchByPhone)
	api.Post("/customers", controllers.HandleCustomerCreate)
	api.Delete("/customers/delete", controllers.HandleCustomerDelete)
	api.Get("/customers/:customerId/cards", controllers.HandleCustomerCards)

	// Card and payment creation sit behind a stricter limit
	strict := limiter.New(limiter.Config{
		Max:        20,
		Expiration: 15 * time.Minute,
	})
	api.Post("/cards", strict, controllers.HandleCardCreate)
	api.Post("/payments/create", strict, controllers.HandlePaymentCreate)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
