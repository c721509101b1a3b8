package routes

import (
	"net/http"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetTopicLayerHandler returns the cached topic forest of a collection:
// nodes, hierarchy edges derived from parent pointers, filtered lateral
// edges, and per-topic importance metrics.
func GetTopicLayerHandler(c echo.Context) error {
	type topicLayerResponse struct {
		Nodes          []common.TopicNode         `json:"nodes"`
		HierarchyEdges []common.TopicRelationship `json:"hierarchy_edges"`
		LateralEdges   []common.TopicRelationship `json:"lateral_edges"`
		Metrics        []common.TopicMetrics      `json:"metrics"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}

	ctx := c.Request().Context()
	caches := c.(*middleware.AppContext).App.Engine.Collection(id)

	snap, err := caches.Topics.Ensure(ctx)
	if err != nil {
		logger.Error("Failed to load topic layer", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load topic layer"})
	}

	return c.JSON(http.StatusOK, topicLayerResponse{
		Nodes:          snap.Nodes,
		HierarchyEdges: snap.HierarchyEdges,
		LateralEdges:   snap.LateralEdges,
		Metrics:        snap.Metrics,
	})
}
