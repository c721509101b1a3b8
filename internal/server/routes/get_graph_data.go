package routes

import (
	"net/http"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetGraphDataHandler returns the full cached entity graph of a
// collection: metrics-enriched nodes, all relationships, and the
// community labels. Reads through the cache, rebuilding it if invalid.
func GetGraphDataHandler(c echo.Context) error {
	type graphResponse struct {
		Nodes         []common.EntityMetrics `json:"nodes"`
		Relationships []common.Relationship  `json:"relationships"`
		Communities   []common.Community     `json:"communities"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}

	ctx := c.Request().Context()
	caches := c.(*middleware.AppContext).App.Engine.Collection(id)

	snap, err := caches.Graph.Ensure(ctx)
	if err != nil {
		logger.Error("Failed to load graph", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load graph"})
	}

	return c.JSON(http.StatusOK, graphResponse{
		Nodes:         snap.Metrics,
		Relationships: snap.Relationships,
		Communities:   snap.Communities,
	})
}
