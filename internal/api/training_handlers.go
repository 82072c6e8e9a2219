package api

import (
	"github.com/gin-gonic/gin"

	"github.com/zmemovies/rue-track/internal/service"
)

func GetCommands(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), app.Tracker().Commands(), nil)
	}
}

func PostCommand(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CommandRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		cmd, err := app.Tracker().AddCommand(c.Request.Context(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Failed to add command")
			return
		}
		HandleSuccess(c, app.Logger(), cmd, nil)
	}
}

func DeleteCommand(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Tracker().DeleteCommand(c.Request.Context(), c.Param("id")); err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to delete command")
			return
		}
		HandleSuccess(c, app.Logger(), nil, nil)
	}
}

func MoveCommand(app App, up bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Tracker().MoveCommand(c.Request.Context(), c.Param("id"), up); err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to move command")
			return
		}
		HandleSuccess(c, app.Logger(), nil, nil)
	}
}

func StartSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.StartSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		session, err := app.Tracker().StartSession(c.Request.Context(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to start session")
			return
		}
		HandleSuccess(c, app.Logger(), session, nil)
	}
}

func GetSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, elapsed, ok := app.Tracker().SessionStatus()
		if !ok {
			HandleSuccess(c, app.Logger(), nil, nil)
			return
		}
		HandleSuccess(c, app.Logger(), session, map[string]any{"elapsed_seconds": elapsed})
	}
}

func PauseSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Tracker().PauseSession(); err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to pause session")
			return
		}
		HandleSuccess(c, app.Logger(), nil, nil)
	}
}

func ResumeSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Tracker().ResumeSession(); err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to resume session")
			return
		}
		HandleSuccess(c, app.Logger(), nil, nil)
	}
}

func EndSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := app.Tracker().EndSession(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to end session")
			return
		}
		HandleSuccess(c, app.Logger(), pending, nil)
	}
}

func ConfirmSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ConfirmResultsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		session, err := app.Tracker().ConfirmSessionResults(c.Request.Context(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to record session")
			return
		}
		HandleSuccess(c, app.Logger(), session, nil)
	}
}

func CancelSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Tracker().CancelPendingResult(); err != nil {
			HandleError(c, app.Logger(), err, statusFor(err), "Failed to cancel session result")
			return
		}
		HandleSuccess(c, app.Logger(), nil, nil)
	}
}
