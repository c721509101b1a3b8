package routes

import (
	"net/http"
	"strconv"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/graph"
	"github.com/inquora/atlas/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetImportanceLayerHandler returns the top-N entities by importance
// with the induced edge set, for the initial overview rendering.
func GetImportanceLayerHandler(c echo.Context) error {
	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}

	maxNodes, _ := strconv.Atoi(c.QueryParam("max_nodes"))
	if maxNodes <= 0 {
		maxNodes = 50
	}
	includeConnectivity := c.QueryParam("connectivity") == "true"

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	snap, err := app.Engine.Collection(id).Graph.Ensure(ctx)
	if err != nil {
		logger.Error("Failed to load graph", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load graph"})
	}

	result, err := graph.ImportanceLayer(ctx, snap, graph.ImportanceLayerParams{
		MaxNodes:            maxNodes,
		IncludeConnectivity: includeConnectivity,
	})
	if err != nil {
		logger.Error("Importance layer failed", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, result)
}
