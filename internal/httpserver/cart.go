package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/minishop/internal/service"
	"github.com/Skotchmaster/minishop/internal/transport"
	"github.com/Skotchmaster/minishop/pkg/logging"
)

// CartHTTP answers every cart request with the full detailed cart.
type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	lines, err := h.Svc.ListDetailed(ctx)
	if err != nil {
		return fail(l, "get_cart_failed", err, "cannot get cart")
	}

	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, transport.MsgInvalidBody)
	}

	itemID, qty, err := req.Input()
	if err != nil {
		return fail(l, "add_to_cart_failed", err, "")
	}

	lines, err := h.Svc.Add(ctx, itemID, qty)
	if err != nil {
		return fail(l, "add_to_cart_failed", err, "cannot add to cart")
	}

	l.Info("add_to_cart_success", "item_id", itemID)
	return c.JSON(http.StatusCreated, lines)
}

func (h *CartHTTP) UpdateCartLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	lineID, err := transport.ParseID(c.Param("id"), service.MsgLineNotFound)
	if err != nil {
		return fail(l, "update_cart_failed", err, "")
	}
	// an unknown line wins over a bad body
	if _, err := h.Svc.Line(ctx, lineID); err != nil {
		return fail(l, "update_cart_failed", err, "cannot update cart")
	}

	var req transport.UpdateCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_cart_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, transport.MsgInvalidBody)
	}

	qty, err := req.Quantity()
	if err != nil {
		return fail(l, "update_cart_failed", err, "")
	}

	lines, err := h.Svc.SetQty(ctx, lineID, qty)
	if err != nil {
		return fail(l, "update_cart_failed", err, "cannot update cart")
	}

	l.Info("update_cart_success", "line_id", lineID, "qty", qty)
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) DeleteCartLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete")

	lineID, err := transport.ParseID(c.Param("id"), service.MsgLineNotFound)
	if err != nil {
		return fail(l, "delete_cart_line_failed", err, "")
	}

	lines, err := h.Svc.Remove(ctx, lineID)
	if err != nil {
		return fail(l, "delete_cart_line_failed", err, "cannot delete cart line")
	}

	l.Info("delete_cart_line_success", "line_id", lineID)
	return c.JSON(http.StatusOK, lines)
}
