package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/graph"
	"github.com/inquora/atlas/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

const similarEntitySuggestions = 5

// GetEntityNeighborhoodHandler runs a bounded BFS around one entity over
// the cached graph. When the entity is not in the graph, the 404 carries
// embedding-based name suggestions so callers can recover from typos and
// paraphrases.
func GetEntityNeighborhoodHandler(c echo.Context) error {
	type neighborhoodResponse struct {
		*graph.NeighborhoodResult
		Suggestions []common.Entity `json:"suggestions,omitempty"`
		Message     string          `json:"message,omitempty"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing entity name"})
	}

	depth, _ := strconv.Atoi(c.QueryParam("depth"))
	if depth <= 0 {
		depth = 1
	}
	maxNodes, _ := strconv.Atoi(c.QueryParam("max_nodes"))
	if maxNodes <= 0 {
		maxNodes = 25
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	snap, err := app.Engine.Collection(id).Graph.Ensure(ctx)
	if err != nil {
		logger.Error("Failed to load graph", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load graph"})
	}

	result, err := graph.Neighborhood(ctx, snap, graph.NeighborhoodParams{
		Center:   name,
		MaxDepth: depth,
		MaxNodes: maxNodes,
	})
	if err != nil {
		if errors.Is(err, graph.ErrEntityNotFound) {
			similar, simErr := app.Engine.Store().FindSimilarEntities(ctx, id, name, similarEntitySuggestions)
			if simErr != nil {
				logger.Warn("Similar entity lookup failed", "collection_id", id, "entity", name, "err", simErr)
			}
			return c.JSON(http.StatusNotFound, neighborhoodResponse{
				Message:     "Entity not found",
				Suggestions: similar,
			})
		}
		logger.Error("Neighborhood search failed", "collection_id", id, "entity", name, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, neighborhoodResponse{NeighborhoodResult: result})
}
