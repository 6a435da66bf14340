package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumen-fi/advisor/internal/server/middleware"
	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/logger"
	"github.com/lumen-fi/advisor/pkg/profile"
)

// UpdatePreferencesHandler applies a manual profile update.
func UpdatePreferencesHandler(c echo.Context) error {
	type updatePreferencesBody struct {
		UserID            string             `json:"user_id" validate:"required"`
		RiskTolerance     string             `json:"risk_tolerance" validate:"omitempty,oneof=conservative moderate aggressive"`
		FinancialGoals    []string           `json:"financial_goals"`
		InvestmentHorizon string             `json:"investment_horizon"`
		Preferences       map[string]float64 `json:"preferences" validate:"omitempty,dive,gte=0,lte=1"`
	}

	type updatePreferencesResponse struct {
		Message string              `json:"message,omitempty"`
		Profile *common.UserProfile `json:"profile,omitempty"`
	}

	data := new(updatePreferencesBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, updatePreferencesResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, updatePreferencesResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	updated, err := app.Profiles.Apply(c.Request().Context(), data.UserID, profile.Updates{
		RiskTolerance:     data.RiskTolerance,
		FinancialGoals:    data.FinancialGoals,
		InvestmentHorizon: data.InvestmentHorizon,
		Preferences:       data.Preferences,
	})
	if err != nil {
		if errors.Is(err, profile.ErrInvalidUpdate) {
			return c.JSON(http.StatusBadRequest, updatePreferencesResponse{Message: err.Error()})
		}
		logger.Error("Failed to update preferences", "user_id", data.UserID, "err", err)
		return c.JSON(http.StatusInternalServerError, updatePreferencesResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, updatePreferencesResponse{Profile: updated})
}
