package routes

import (
	"net/http"

	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ImportKnowledgeHandler accepts raw entity and relationship records,
// maps them onto the canonical types at this one boundary, and upserts
// them. Raw records may use any of the field-name variants upstream
// extractors have shipped; missing optional fields get their documented
// defaults. Both caches are invalidated on success.
func ImportKnowledgeHandler(c echo.Context) error {
	type importBody struct {
		Entities      []map[string]any `json:"entities"`
		Relationships []map[string]any `json:"relationships"`
	}

	type importResponse struct {
		Message       string `json:"message"`
		Entities      int    `json:"entities"`
		Relationships int    `json:"relationships"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, importResponse{Message: "Invalid collection ID"})
	}

	data := new(importBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, importResponse{Message: "Invalid request body"})
	}
	if len(data.Entities) == 0 && len(data.Relationships) == 0 {
		return c.JSON(http.StatusBadRequest, importResponse{Message: "Nothing to import"})
	}

	entities := make([]common.Entity, 0, len(data.Entities))
	for _, raw := range data.Entities {
		ent := common.NormalizeEntity(raw)
		if ent.Name == "" {
			continue
		}
		entities = append(entities, ent)
	}

	relationships := make([]common.Relationship, 0, len(data.Relationships))
	for _, raw := range data.Relationships {
		rel := common.NormalizeRelationship(raw)
		if rel.FromEntity == "" || rel.ToEntity == "" {
			continue
		}
		rel.Sources = common.DedupeSources(rel.Sources)
		relationships = append(relationships, rel)
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	if err := app.Engine.Store().ImportKnowledge(ctx, id, entities, relationships); err != nil {
		logger.Error("Knowledge import failed", "collection_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, importResponse{Message: "Import failed"})
	}
	app.Engine.InvalidateAll(id)

	return c.JSON(http.StatusOK, importResponse{
		Message:       "Knowledge imported",
		Entities:      len(entities),
		Relationships: len(relationships),
	})
}
