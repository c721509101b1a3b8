package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/inquora/atlas/backend/pkg/ai"
	"github.com/inquora/atlas/backend/pkg/graph"
)

// AppUser is the authenticated caller, populated by AuthMiddleware.
type AppUser struct {
	UserID      int64
	Role        string
	Permissions []string
}

// App bundles the process-wide collaborators every handler needs. The
// graph engine and AI client are created once at startup, not per
// request: the engine owns the per-collection caches and must be shared
// for cache reads to hit.
type App struct {
	DBConn         *pgxpool.Pool
	Queue          *amqp091.Channel
	Key            *keyfunc.Keyfunc
	Engine         *graph.Engine
	AiClient       ai.GraphAIClient
	MasterAPIKey   string
	MasterUserID   int64
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
