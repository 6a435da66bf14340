package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumen-fi/advisor/internal/server/middleware"
	"github.com/lumen-fi/advisor/pkg/store"
)

// GetGraphHandler returns the nodes and edges of one knowledge graph batch
// for external rendering.
func GetGraphHandler(c echo.Context) error {
	type graphResponse struct {
		Message string             `json:"message,omitempty"`
		Graph   *store.GraphExport `json:"graph,omitempty"`
	}

	graphID := c.Param("graph_id")
	if graphID == "" {
		return c.JSON(http.StatusBadRequest, graphResponse{Message: "graph_id is required"})
	}

	app := c.(*middleware.AppContext).App
	export, err := app.Graph.ExportBatch(c.Request().Context(), graphID)
	if err != nil {
		return c.JSON(http.StatusNotFound, graphResponse{Message: "Graph not found"})
	}

	return c.JSON(http.StatusOK, graphResponse{Graph: export})
}
