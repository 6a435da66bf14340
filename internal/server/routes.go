package server

import (
	"github.com/labstack/echo/v4"

	"github.com/lumen-fi/advisor/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Document ingestion
	apiRoutes.POST("/process-document", routes.ProcessDocumentHandler)

	// Advisory queries
	apiRoutes.POST("/advice", routes.AdviceHandler)

	// Profile routes
	apiRoutes.GET("/profile/:user_id", routes.GetProfileHandler)
	apiRoutes.PUT("/preferences", routes.UpdatePreferencesHandler)

	// Knowledge graph export
	apiRoutes.GET("/graphs/:graph_id", routes.GetGraphHandler)
}
