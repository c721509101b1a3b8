package routes

import (
	"errors"
	"net/http"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"
	"github.com/inquora/atlas/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

// GetEntityDetailHandler returns one entity with its direct edges. This
// is a point lookup against storage, not the cache: detail views must
// see entities below the cache's top-N cutoff too.
func GetEntityDetailHandler(c echo.Context) error {
	type entityDetailResponse struct {
		Entity        *common.Entity        `json:"entity"`
		Metrics       *common.EntityMetrics `json:"metrics,omitempty"`
		Relationships []common.Relationship `json:"relationships"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing entity name"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	st := app.Engine.Store()

	entity, err := st.GetEntityByName(ctx, id, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
		}
		logger.Error("Failed to load entity", "collection_id", id, "entity", name, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	neighbors, err := st.GetNeighbors(ctx, id, entity.Name)
	if err != nil {
		logger.Error("Failed to load neighbors", "collection_id", id, "entity", name, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	// Metrics are best-effort: entities outside the cached top-N have
	// none.
	var metrics *common.EntityMetrics
	if snap := app.Engine.Collection(id).Graph.Stale(); snap != nil {
		metrics = snap.MetricsByName(entity.Name)
	}

	return c.JSON(http.StatusOK, entityDetailResponse{
		Entity:        entity,
		Metrics:       metrics,
		Relationships: neighbors,
	})
}
