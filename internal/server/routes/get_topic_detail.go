package routes

import (
	"net/http"
	"strconv"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/graph"
	"github.com/inquora/atlas/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetTopicDetailHandler returns one topic with its children, metrics,
// and recent deduplicated activity.
func GetTopicDetailHandler(c echo.Context) error {
	type topicDetailResponse struct {
		Topic      *common.TopicNode    `json:"topic"`
		Children   []common.TopicNode   `json:"children,omitempty"`
		Metrics    *common.TopicMetrics `json:"metrics,omitempty"`
		Activities []common.Activity    `json:"activities"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing topic name"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 50
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	caches := app.Engine.Collection(id)

	snap, err := caches.Topics.Ensure(ctx)
	if err != nil {
		logger.Error("Failed to load topic layer", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load topic layer"})
	}

	node := snap.NodeByName(name)
	if node == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Topic not found"})
	}

	var children []common.TopicNode
	for _, childID := range node.ChildIDs {
		if child := snap.NodeByID(childID); child != nil {
			children = append(children, *child)
		}
	}

	var metrics *common.TopicMetrics
	for i := range snap.Metrics {
		if snap.Metrics[i].TopicID == node.ID {
			metrics = &snap.Metrics[i]
			break
		}
	}

	activities, err := app.Engine.Store().GetTopicActivities(ctx, id, node.Name, limit)
	if err != nil {
		logger.Error("Failed to load topic activities", "collection_id", id, "topic", node.Name, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, topicDetailResponse{
		Topic:      node,
		Children:   children,
		Metrics:    metrics,
		Activities: graph.DedupeActivities(activities),
	})
}
