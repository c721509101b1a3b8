package server

import (
	"github.com/inquora/atlas/backend/internal/server/middleware"
	"github.com/inquora/atlas/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Entity graph routes
	apiRoutes.GET("/collections/:id/graph", routes.GetGraphDataHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.GET("/collections/:id/graph/status", routes.GetGraphStatusHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.POST("/collections/:id/graph/build", routes.BuildGraphHandler, middleware.RequirePermission("graph.build"))
	apiRoutes.POST("/collections/:id/graph/import", routes.ImportKnowledgeHandler, middleware.RequirePermission("graph.build"))
	apiRoutes.DELETE("/collections/:id/graph", routes.ClearGraphHandler, middleware.RequirePermission("graph.clear"))
	apiRoutes.GET("/collections/:id/graph/importance", routes.GetImportanceLayerHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.POST("/collections/:id/graph/viewport", routes.ExpandViewportHandler, middleware.RequirePermission("graph.view"))

	// Entity routes
	apiRoutes.GET("/collections/:id/entities/:name", routes.GetEntityDetailHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.GET("/collections/:id/entities/:name/neighborhood", routes.GetEntityNeighborhoodHandler, middleware.RequirePermission("graph.view"))

	// Topic routes
	apiRoutes.GET("/collections/:id/topics", routes.GetTopicLayerHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.GET("/collections/:id/topics/:name", routes.GetTopicDetailHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.POST("/collections/:id/topics/timeline", routes.BuildTimelinesHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.POST("/collections/:id/topics/merge", routes.MergeHierarchyHandler, middleware.RequirePermission("graph.merge"))

	// Document routes
	apiRoutes.GET("/collections/:id/documents", routes.GetURLBreakdownHandler, middleware.RequirePermission("graph.view"))
}
