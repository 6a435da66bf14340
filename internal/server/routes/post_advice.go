package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumen-fi/advisor/internal/server/middleware"
	"github.com/lumen-fi/advisor/pkg/advisor"
	"github.com/lumen-fi/advisor/pkg/logger"
)

// AdviceHandler answers a user query grounded in the user's ingested
// documents and knowledge graph. An optional document path is ingested
// first.
func AdviceHandler(c echo.Context) error {
	type adviceBody struct {
		Query        string  `json:"query" validate:"required"`
		UserID       string  `json:"user_id" validate:"required"`
		DocumentPath *string `json:"document_path"`
		TopK         int     `json:"top_k" validate:"omitempty,gte=0"`
	}

	type adviceResponse struct {
		Message string            `json:"message,omitempty"`
		Advice  *advisor.Response `json:"advice,omitempty"`
	}

	data := new(adviceBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, adviceResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, adviceResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	response, err := app.Advisor.Advise(c.Request().Context(), advisor.Request{
		Query:        data.Query,
		OwnerID:      data.UserID,
		DocumentPath: data.DocumentPath,
		TopK:         data.TopK,
	})
	if err != nil {
		var stageErr *advisor.StageError
		if errors.As(err, &stageErr) && stageErr.Stage == "validate" {
			return c.JSON(http.StatusBadRequest, adviceResponse{Message: stageErr.Error()})
		}
		logger.Error("Failed to generate advice", "user_id", data.UserID, "err", err)
		return c.JSON(http.StatusInternalServerError, adviceResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, adviceResponse{Advice: response})
}
