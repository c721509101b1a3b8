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

// MergeHierarchyHandler runs a topic hierarchy merge. Without apply the
// classification runs inline and the proposed merges are returned
// without touching storage. With apply the run is enqueued for the
// worker, which executes the same code path under a lease and commits.
func MergeHierarchyHandler(c echo.Context) error {
	type mergeBody struct {
		Apply bool `json:"apply"`
	}

	type mergeAcceptedResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}

	data := new(mergeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	if !data.Apply {
		report, err := app.Engine.PreviewHierarchyMerge(ctx, id, app.AiClient)
		if err != nil {
			logger.Error("Hierarchy merge preview failed", "collection_id", id, "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		return c.JSON(http.StatusOK, report)
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	body, err := json.Marshal(queue.QueueHierarchyMergeMsg{
		CollectionID:  id,
		CorrelationID: correlationID,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if err := queue.PublishFIFO(app.Queue, queue.HierarchyMergeQueue, body); err != nil {
		logger.Error("Failed to enqueue hierarchy merge", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to enqueue hierarchy merge"})
	}

	logger.Info("Hierarchy merge enqueued", "collection_id", id, "correlation_id", correlationID)
	return c.JSON(http.StatusAccepted, mergeAcceptedResponse{
		Message:       "Hierarchy merge enqueued",
		CorrelationID: correlationID,
	})
}
