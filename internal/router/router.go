package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dkhalitov/pos-terminal-sync/internal/config"
	"github.com/dkhalitov/pos-terminal-sync/internal/handler"
	"github.com/dkhalitov/pos-terminal-sync/internal/middleware"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Terminal *handler.TerminalHandler
	Orders   *handler.OrderHandler
	Tables   *handler.TableHandler
	Sales    *handler.SaleHandler
}

// Register mounts the full HTTP surface on the provided Echo instance.
//
// The websocket endpoint and the pull queries are open: a terminal must
// be able to reconnect and rebuild its view before any human logs in.
// Mutating endpoints sit behind JWT auth, and everything under /v1 runs
// through the Redis token bucket when rate limiting is enabled.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/ws/terminal", h.Terminal.Serve)

	v1 := e.Group("/v1")
	v1.Use(middleware.NewTokenBucket(rlCfg, rdb))

	// Read-only snapshots, usable by a reconnecting terminal without a
	// session.
	v1.GET("/terminals", h.Terminal.ListTerminals)
	v1.GET("/tables", h.Tables.ListTables)
	v1.GET("/orders/active", h.Orders.ListActiveOrders)

	auth := v1.Group("")
	auth.Use(middleware.JWTAuth(jwtSecret))

	auth.POST("/orders/kitchen", h.Orders.PlaceKitchenOrder)
	auth.POST("/orders/kitchen/:id/items/:item/status", h.Orders.AdvanceKitchenItem)
	auth.POST("/orders/kitchen/:id/items/:item", h.Orders.EditKitchenItem)
	auth.POST("/orders/kitchen/:id/items/:item/modification-request", h.Orders.RequestItemModification)

	auth.POST("/orders/online", h.Orders.PlaceOnlineOrder)
	auth.POST("/orders/online/:id/status", h.Orders.AdvanceOnlineOrder)

	auth.POST("/orders/table", h.Orders.OpenTableOrder)
	auth.POST("/orders/table/:id/finalize", h.Orders.FinalizeTableOrder)

	auth.POST("/orders/:id/cancel", h.Orders.CancelOrder)

	auth.POST("/tables/:number/allocate", h.Tables.AllocateSeats)
	auth.POST("/tables/:number/release", h.Tables.ReleaseTable)
	auth.POST("/tables/:number/select", h.Tables.SelectTable)

	auth.POST("/sales", h.Sales.CompleteSale)
}
