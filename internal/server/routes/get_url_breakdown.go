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

// GetURLBreakdownHandler returns a captured document and the topics
// extracted from it.
func GetURLBreakdownHandler(c echo.Context) error {
	type urlBreakdownResponse struct {
		Document *common.Document `json:"document"`
		Topics   []string         `json:"topics"`
	}

	id, err := collectionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid collection ID"})
	}
	url := c.QueryParam("url")
	if url == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing url parameter"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Engine.Store()

	doc, err := st.GetDocumentByURL(ctx, id, url)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Document not found"})
		}
		logger.Error("Failed to load document", "collection_id", id, "url", url, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	topics, err := st.GetDocumentTopics(ctx, id, url)
	if err != nil {
		logger.Error("Failed to load document topics", "collection_id", id, "url", url, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, urlBreakdownResponse{
		Document: doc,
		Topics:   topics,
	})
}
