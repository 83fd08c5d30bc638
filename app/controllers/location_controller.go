package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// HandleLocations returns the seller's cached active locations,
// populating the cache from Square on first use.
func HandleLocations(c *fiber.Ctx) error {
	current, err := resolveSeller(c)
	if err != nil {
		return unauthorizedSeller(c)
	}

	if len(current.Locations) == 0 {
		ctx, cancel := providerCallContext()
		defer cancel()

		locations, err := squareAPI.ListLocations(ctx, current.AccessToken)
		if err != nil {
			return upstreamError(c, err)
		}
		current.Locations = locations
		// Write the populated cache back so later payment requests can
		// verify location ownership without another provider call.
		if err := sellerStore.Put(c.UserContext(), current); err != nil {
			log.Printf("caching locations for %s failed: %v", abbrevID(current.MerchantID), err)
		}
	}

	return c.JSON(fiber.Map{"locations": current.Locations})
}
