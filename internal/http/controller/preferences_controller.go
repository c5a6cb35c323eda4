package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/shopping-list/internal/preferences"
)

// PreferenceSettings reads and changes the user settings.
type PreferenceSettings interface {
	Preferences
	Apply(ctx context.Context, p preferences.Patch) (preferences.Values, error)
}

// PreferencesController handles HTTP requests for the user settings.
type PreferencesController struct {
	settings PreferenceSettings
}

func NewPreferencesController(settings PreferenceSettings) *PreferencesController {
	return &PreferencesController{settings: settings}
}

// GetPreferences handles the HTTP GET request for the current settings.
func (pc *PreferencesController) GetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, pc.settings.Snapshot())
}

// UpdatePreferences handles the HTTP PUT request changing the given settings.
func (pc *PreferencesController) UpdatePreferences(c *gin.Context) {
	var req preferences.Patch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	values, err := pc.settings.Apply(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}
