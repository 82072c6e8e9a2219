package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zmemovies/rue-track/internal/service"
)

// parseDay interprets a ?date=YYYY-MM-DD query in local time; empty means
// today.
func parseDay(c *gin.Context) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.ParseInLocation("2006-01-02", raw, time.Local)
}

func PostEvent(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.LogEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		ev, err := app.Tracker().LogEvent(c.Request.Context(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Failed to log event")
			return
		}

		HandleSuccess(c, app.Logger(), ev, nil)
	}
}

func GetEvents(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		day, err := parseDay(c)
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid date")
			return
		}

		var events any
		if c.Query("date") == "" && c.Query("all") == "true" {
			events = app.Tracker().AllEvents()
		} else {
			events = app.Tracker().EventsForDay(day)
		}
		HandleSuccess(c, app.Logger(), events, nil)
	}
}

func PatchEvent(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.UpdateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		ev, err := app.Tracker().UpdateEvent(c.Request.Context(), c.Param("id"), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to update event")
			return
		}

		HandleSuccess(c, app.Logger(), ev, nil)
	}
}

func DeleteEvent(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Tracker().DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to delete event")
			return
		}
		HandleSuccess(c, app.Logger(), nil, nil)
	}
}
