// Package router wires the HTTP routes to their handlers.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/conference-registration/internal/config"
	"github.com/iliyamo/conference-registration/internal/handler"
	"github.com/iliyamo/conference-registration/internal/middleware"
)

// RegisterRoutes registers every endpoint of the service.
func RegisterRoutes(e *echo.Echo, pub *handler.PublicHandler, orders *handler.OrderHandler, owner *handler.OwnerHandler, rlCfg config.RateLimitConfig, rdb *redis.Client, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	// Public browse endpoints, no authentication.
	e.GET("/v1/conferences", pub.ListConferences)
	e.GET("/v1/conferences/:slug", pub.GetConference)
	e.GET("/v1/conferences/:slug/seats", pub.GetConferenceSeats)

	// Registrant order endpoints.  Placement is rate limited; the rest is
	// keyed on the unguessable order id.
	e.POST("/v1/orders", orders.PlaceOrder, middleware.NewTokenBucket(rlCfg, rdb))
	e.GET("/v1/orders/:id", orders.GetOrder)
	e.PUT("/v1/orders/:id/seats", orders.UpdateSeats)
	e.PUT("/v1/orders/:id/registrant", orders.AssignRegistrant)
	e.POST("/v1/orders/:id/confirm", orders.Confirm)
	e.POST("/v1/orders/:id/payment", orders.Payment)
	e.PUT("/v1/orders/:id/seat-assignments/:position", orders.AssignSeat)
	e.DELETE("/v1/orders/:id/seat-assignments/:position", orders.UnassignSeat)

	// Conference creation and the access-code exchange are open; the
	// owner group requires the conference-scoped token.
	e.POST("/v1/conferences", owner.CreateConference)
	e.POST("/v1/conferences/locate", owner.Locate)

	g := e.Group("/v1/owner")
	g.Use(middleware.OwnerAuth(jwtSecret))
	g.PUT("/conference", owner.UpdateConference)
	g.POST("/conference/publish", owner.Publish)
	g.POST("/seat-types", owner.CreateSeatType)
	g.PUT("/seat-types/:name", owner.UpdateSeatType)
}
