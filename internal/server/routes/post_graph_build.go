package routes

import (
	"encoding/json"
	"net/http"

	"github.com/inquora/atlas/backend/internal/queue"
	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// BuildGraphHandler enqueues a full graph rebuild for the collection.
// The build itself runs in the worker under a per-collection lease; the
// response only confirms enqueueing.
func BuildGraphHandler(c echo.Context) error {
	type buildResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, buildResponse{Message: "Invalid collection ID"})
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, buildResponse{Message: "Internal server error"})
	}

	msg := queue.QueueGraphBuildMsg{
		CollectionID:  id,
		CorrelationID: correlationID,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, buildResponse{Message: "Internal server error"})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.GraphBuildQueue, body); err != nil {
		logger.Error("Failed to enqueue graph build", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, buildResponse{Message: "Failed to enqueue graph build"})
	}

	logger.Info("Graph build enqueued", "collection_id", id, "correlation_id", correlationID)
	return c.JSON(http.StatusAccepted, buildResponse{
		Message:       "Graph build enqueued",
		CorrelationID: correlationID,
	})
}
