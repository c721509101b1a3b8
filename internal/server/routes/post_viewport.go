package routes

import (
	"net/http"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/graph"
	"github.com/inquora/atlas/backend/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// ExpandViewportHandler grows an interactive view outward from the
// nodes already on screen, admitting the highest-scored neighbors
// first.
func ExpandViewportHandler(c echo.Context) error {
	type viewportBody struct {
		Center             string   `json:"center"`
		Anchors            []string `json:"anchors"`
		MaxNodes           int      `json:"max_nodes"`
		MinHops            int      `json:"min_hops"`
		WeightByImportance bool     `json:"weight_by_importance"`
		ExpandFromAnchors  bool     `json:"expand_from_anchors"`
		IncludeGlobalNodes bool     `json:"include_global_nodes"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}

	data := new(viewportBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if data.Center == "" && len(data.Anchors) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Center or anchors required"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	snap, err := app.Engine.Collection(id).Graph.Ensure(ctx)
	if err != nil {
		logger.Error("Failed to load graph", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load graph"})
	}

	result, err := graph.ViewportExpand(ctx, snap, graph.ViewportParams{
		Center:             data.Center,
		Anchors:            data.Anchors,
		MaxNodes:           data.MaxNodes,
		MinHops:            data.MinHops,
		WeightByImportance: data.WeightByImportance,
		ExpandFromAnchors:  data.ExpandFromAnchors,
		IncludeGlobalNodes: data.IncludeGlobalNodes,
	})
	if err != nil {
		logger.Error("Viewport expansion failed", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, result)
}
