package routes

import (
	"net/http"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/graph"

	"github.com/labstack/echo/v4"
)

// GetGraphStatusHandler reports cache validity and the counts of the
// last built snapshots. It never triggers a rebuild: an invalid cache is
// reported as invalid with its stale counts.
func GetGraphStatusHandler(c echo.Context) error {
	type statusResponse struct {
		CollectionID int64             `json:"collection_id"`
		Graph        graph.Status      `json:"graph"`
		Topics       graph.TopicStatus `json:"topics"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}

	caches := c.(*middleware.AppContext).App.Engine.Collection(id)

	return c.JSON(http.StatusOK, statusResponse{
		CollectionID: id,
		Graph:        caches.Graph.Status(),
		Topics:       caches.Topics.Status(),
	})
}
