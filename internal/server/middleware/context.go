package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/lumen-fi/advisor/pkg/advisor"
	"github.com/lumen-fi/advisor/pkg/profile"
	"github.com/lumen-fi/advisor/pkg/store"
)

// App bundles the service handles the route handlers work with. It is
// constructed once at startup and shared across requests.
type App struct {
	Advisor  *advisor.Client
	Profiles *profile.Manager
	Graph    store.GraphStorage

	// Queue is nil when the process runs without a message broker; document
	// processing then happens synchronously in the request.
	Queue *amqp091.Channel
}

// AppContext carries the App through echo's request context.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware wraps every request context in an AppContext.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, App: app})
		}
	}
}
