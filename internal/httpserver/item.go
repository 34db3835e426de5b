package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/minishop/internal/service"
	"github.com/Skotchmaster/minishop/internal/transport"
	"github.com/Skotchmaster/minishop/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.list")

	items, err := h.Svc.ListItems(ctx)
	if err != nil {
		return fail(l, "list_items_failed", err, "cannot list items")
	}

	l.Info("list_items_success", "count", len(items))
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) GetItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.get")

	id, err := transport.ParseID(c.Param("id"), service.MsgItemNotFound)
	if err != nil {
		return fail(l, "get_item_failed", err, "")
	}

	it, err := h.Svc.GetItem(ctx, id)
	if err != nil {
		return fail(l, "get_item_failed", err, "cannot get item")
	}

	return c.JSON(http.StatusOK, it)
}

func (h *CatalogHTTP) CreateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.create")

	var req transport.CreateItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_item_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, transport.MsgInvalidBody)
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("create_item_failed", "status", 400, "reason", "missing fields", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.MsgNameAndPriceRequired)
	}

	in, err := req.Input()
	if err != nil {
		return fail(l, "create_item_failed", err, "")
	}

	it, err := h.Svc.CreateItem(ctx, in)
	if err != nil {
		return fail(l, "create_item_failed", err, "cannot create item")
	}

	l.Info("create_item_success", "item_id", it.ID)
	return c.JSON(http.StatusCreated, it)
}

func (h *CatalogHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.update")

	id, err := transport.ParseID(c.Param("id"), service.MsgItemNotFound)
	if err != nil {
		return fail(l, "update_item_failed", err, "")
	}
	// an unknown id wins over a bad body
	if _, err := h.Svc.GetItem(ctx, id); err != nil {
		return fail(l, "update_item_failed", err, "cannot update item")
	}

	var req transport.PatchItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_item_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, transport.MsgInvalidBody)
	}

	patch, err := req.Patch()
	if err != nil {
		return fail(l, "update_item_failed", err, "")
	}

	it, err := h.Svc.UpdateItem(ctx, id, patch)
	if err != nil {
		return fail(l, "update_item_failed", err, "cannot update item")
	}

	l.Info("update_item_success", "item_id", it.ID)
	return c.JSON(http.StatusOK, it)
}

func (h *CatalogHTTP) DeleteItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.delete")

	id, err := transport.ParseID(c.Param("id"), service.MsgItemNotFound)
	if err != nil {
		return fail(l, "delete_item_failed", err, "")
	}

	if err := h.Svc.DeleteItem(ctx, id); err != nil {
		return fail(l, "delete_item_failed", err, "cannot delete item")
	}

	l.Info("delete_item_success", "item_id", id)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *CatalogHTTP) SearchItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.search")

	items, err := h.Svc.SearchItems(ctx, c.QueryParam("q"))
	if err != nil {
		return fail(l, "search_items_failed", err, "cannot search items")
	}

	l.Info("search_items_success", "count", len(items))
	return c.JSON(http.StatusOK, items)
}
