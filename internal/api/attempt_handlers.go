package api

import (
	"github.com/gin-gonic/gin"
)

func GetAttempts(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), app.Tracker().PendingOutAttempts(), nil)
	}
}

func AcknowledgeAttempt(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := app.Tracker().AcknowledgeAttempt(c.Request.Context(), c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to acknowledge attempt")
			return
		}
		HandleSuccess(c, app.Logger(), a, nil)
	}
}

func DeleteAttempt(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Tracker().DeleteAttempt(c.Request.Context(), c.Param("id")); err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to delete attempt")
			return
		}
		HandleSuccess(c, app.Logger(), nil, nil)
	}
}

func GetPeeSuggestion(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		at, ok := app.Tracker().SuggestNextPee()
		if !ok {
			// Insufficient data is not an error for a reminder tool.
			HandleSuccess(c, app.Logger(), nil, map[string]any{"reason": "insufficient data"})
			return
		}
		HandleSuccess(c, app.Logger(), gin.H{"at": at.UnixMilli()}, nil)
	}
}

func GetRemainingMeals(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		meals := app.Tracker().RemainingMeals()
		out := make([]int64, len(meals))
		for i, m := range meals {
			out[i] = m.UnixMilli()
		}
		HandleSuccess(c, app.Logger(), out, nil)
	}
}

func PostMealReminder(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := app.Tracker().EnsureMealReminder(c.Request.Context())
		if a == nil {
			HandleSuccess(c, app.Logger(), nil, map[string]any{"scheduled": false})
			return
		}
		HandleSuccess(c, app.Logger(), a, map[string]any{"scheduled": true})
	}
}

func GetExport(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		day, err := parseDay(c)
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid date")
			return
		}
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.String(200, app.Tracker().Export(day))
	}
}
