package routes

import (
	"net/http"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ClearGraphHandler drops the derived graph of a collection and
// invalidates its caches. The underlying captured content is untouched;
// a later build recreates the graph from it.
func ClearGraphHandler(c echo.Context) error {
	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	if err := app.Engine.Store().ClearGraph(ctx, id); err != nil {
		logger.Error("Failed to clear graph", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to clear graph"})
	}
	app.Engine.InvalidateAll(id)

	return c.JSON(http.StatusOK, map[string]string{"message": "Graph cleared"})
}
