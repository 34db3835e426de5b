package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/minishop/pkg/logging"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewValidator()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx := c.Request().Context()
		if err := d.Ready(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness_failed", "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
		}
		return c.NoContent(http.StatusOK)
	})

	items := e.Group("/api/items")
	items.GET("", d.CatalogHandler.ListItems)
	items.POST("", d.CatalogHandler.CreateItem)
	items.GET("/search", d.CatalogHandler.SearchItems)
	items.GET("/:id", d.CatalogHandler.GetItem)
	items.PUT("/:id", d.CatalogHandler.UpdateItem)
	items.PATCH("/:id", d.CatalogHandler.UpdateItem)
	items.DELETE("/:id", d.CatalogHandler.DeleteItem)

	cart := e.Group("/api/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PUT("/:id", d.CartHandler.UpdateCartLine)
	cart.DELETE("/:id", d.CartHandler.DeleteCartLine)
}
