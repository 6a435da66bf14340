package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumen-fi/advisor/internal/queue"
	"github.com/lumen-fi/advisor/internal/server/middleware"
	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/logger"
)

// ProcessDocumentHandler ingests a document for a user. With a broker
// configured and async requested the job is queued; otherwise processing
// happens in the request and the full summary is returned.
func ProcessDocumentHandler(c echo.Context) error {
	type processDocumentBody struct {
		DocumentPath string `json:"document_path" validate:"required"`
		UserID       string `json:"user_id" validate:"required"`
		Async        bool   `json:"async"`
	}

	type processDocumentResponse struct {
		Message string               `json:"message"`
		Result  *common.IngestResult `json:"result,omitempty"`
	}

	data := new(processDocumentBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, processDocumentResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, processDocumentResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App

	if data.Async && app.Queue != nil {
		err := queue.PublishIngest(app.Queue, queue.IngestMsg{
			DocumentPath: data.DocumentPath,
			OwnerID:      data.UserID,
		})
		if err != nil {
			logger.Error("Failed to enqueue document", "path", data.DocumentPath, "err", err)
			return c.JSON(http.StatusInternalServerError, processDocumentResponse{Message: "Internal server error"})
		}
		return c.JSON(http.StatusAccepted, processDocumentResponse{Message: "Document queued for processing"})
	}

	result := app.Advisor.ProcessDocument(c.Request().Context(), data.DocumentPath, data.UserID)
	return c.JSON(http.StatusOK, processDocumentResponse{
		Message: "Document processed",
		Result:  &result,
	})
}
