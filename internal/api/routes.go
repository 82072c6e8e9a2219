package api

import "github.com/gin-gonic/gin"

// RegisterRoutes wires every handler onto the engine.
func RegisterRoutes(r *gin.Engine, app App) {
	r.Use(RequestIDMiddleware())

	r.POST("/api/events", PostEvent(app))
	r.GET("/api/events", GetEvents(app))
	r.PATCH("/api/events/:id", PatchEvent(app))
	r.DELETE("/api/events/:id", DeleteEvent(app))

	r.GET("/api/attempts", GetAttempts(app))
	r.POST("/api/attempts/:id/done", AcknowledgeAttempt(app))
	r.DELETE("/api/attempts/:id", DeleteAttempt(app))

	r.GET("/api/suggest/pee", GetPeeSuggestion(app))
	r.GET("/api/meals/remaining", GetRemainingMeals(app))
	r.POST("/api/meals/remind", PostMealReminder(app))

	r.GET("/api/commands", GetCommands(app))
	r.POST("/api/commands", PostCommand(app))
	r.DELETE("/api/commands/:id", DeleteCommand(app))
	r.POST("/api/commands/:id/move-up", MoveCommand(app, true))
	r.POST("/api/commands/:id/move-down", MoveCommand(app, false))

	r.GET("/api/session", GetSession(app))
	r.POST("/api/session/start", StartSession(app))
	r.POST("/api/session/pause", PauseSession(app))
	r.POST("/api/session/resume", ResumeSession(app))
	r.POST("/api/session/end", EndSession(app))
	r.POST("/api/session/confirm", ConfirmSession(app))
	r.POST("/api/session/cancel", CancelSession(app))

	r.GET("/api/settings", GetSettings(app))
	r.PUT("/api/settings", PutSettings(app))

	r.GET("/api/export", GetExport(app))
}
