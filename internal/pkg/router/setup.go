package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zorinapay/paybridge/internal/pkg/sellerstore"
	"github.com/zorinapay/paybridge/internal/pkg/square"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, store sellerstore.Store, client *square.Client) {
	// HttpRouter first: it wires the controllers' store and Square client,
	// which the API routes depend on.
	setup(app, NewHttpRouter(store, client), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
