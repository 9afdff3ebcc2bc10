package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/canteen/internal/catalog"
	"github.com/Skotchmaster/canteen/internal/logging"
	"github.com/Skotchmaster/canteen/internal/search"
	"github.com/Skotchmaster/canteen/internal/transport"
	"github.com/Skotchmaster/canteen/internal/util"
)

type ItemHTTP struct {
	Catalog  *catalog.Catalog
	Searcher search.Searcher
}

func (h *ItemHTTP) GetItems(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.List())
}

func (h *ItemHTTP) GetItem(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "item.get_item")

	id, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "get_item", "id is not a number", err)
	}

	item, ok := h.Catalog.Lookup(id)
	if !ok {
		l.Warn("get_item_error", "status", http.StatusNotFound, "reason", "item not found", "item_id", id)
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ItemHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		l.Warn("search_error", "status", http.StatusBadRequest, "reason", "query required")
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, size := util.Calculate(page, size)

	total, items, err := h.Searcher.Search(ctx, q, from, size)
	if err != nil {
		return fail(l, "search", err)
	}
	return c.JSON(http.StatusOK, transport.SearchResponse{Total: total, Items: items})
}
