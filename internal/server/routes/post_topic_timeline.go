package routes

import (
	"net/http"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/graph"
	"github.com/inquora/atlas/backend/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// BuildTimelinesHandler joins topic occurrences with their source
// documents into per-topic activity timelines, optionally extended with
// co-occurring topics.
func BuildTimelinesHandler(c echo.Context) error {
	type timelineBody struct {
		Topics         []string `json:"topics" validate:"required,min=1"`
		IncludeRelated bool     `json:"include_related"`
		Limit          int      `json:"limit"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}

	data := new(timelineBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	result, err := graph.BuildTimelines(ctx, app.Engine.Store(), id, graph.TimelineParams{
		Topics:         data.Topics,
		IncludeRelated: data.IncludeRelated,
		Limit:          data.Limit,
	})
	if err != nil {
		logger.Error("Timeline build failed", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, result)
}
