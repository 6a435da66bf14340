package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumen-fi/advisor/internal/server/middleware"
	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/logger"
)

// GetProfileHandler returns the user's profile, creating the default on
// first access.
func GetProfileHandler(c echo.Context) error {
	type profileResponse struct {
		Message string              `json:"message,omitempty"`
		Profile *common.UserProfile `json:"profile,omitempty"`
	}

	userID := c.Param("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, profileResponse{Message: "user_id is required"})
	}

	app := c.(*middleware.AppContext).App
	profile, err := app.Profiles.Load(c.Request().Context(), userID)
	if err != nil {
		logger.Error("Failed to load profile", "user_id", userID, "err", err)
		return c.JSON(http.StatusInternalServerError, profileResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, profileResponse{Profile: profile})
}
