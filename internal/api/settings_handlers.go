package api

import (
	"github.com/gin-gonic/gin"

	"github.com/zmemovies/rue-track/internal/service"
)

func GetSettings(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), app.Tracker().Settings(), nil)
	}
}

func PutSettings(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.SettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		settings, err := app.Tracker().SaveSettings(c.Request.Context(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Settings validation failed")
			return
		}
		HandleSuccess(c, app.Logger(), settings, nil)
	}
}
