package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/amendment-service/internal/api/http/handlers"
	"github.com/spec-kit/amendment-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Amendments     *handlers.AmendmentsHandler
	Comments       *handlers.CommentsHandler
	Notifications  *handlers.NotificationsHandler
	Defects        *handlers.DefectsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	protected.Get("/auth/me", cfg.Auth.Me)
	protected.Post("/auth/register", auth.RequireAdmin(), cfg.Auth.Register)

	protected.Get("/collaborators", cfg.Auth.ListCollaborators)
	protected.Post("/collaborators/:id/deactivate", auth.RequireAdmin(), cfg.Auth.Deactivate)

	amendments := protected.Group("/amendments")
	amendments.Post("", cfg.Amendments.Create)
	amendments.Get("", cfg.Amendments.List)
	amendments.Get("/:id", cfg.Amendments.Get)
	amendments.Delete("/:id", auth.RequireAdmin(), cfg.Amendments.Delete)

	amendments.Patch("/:id/qa", cfg.Amendments.UpdateQA)
	amendments.Post("/:id/qa/status", cfg.Amendments.Transition)
	amendments.Post("/:id/qa/status/validate", cfg.Amendments.ValidateTransition)
	amendments.Get("/:id/qa/allowed-statuses", cfg.Amendments.AllowedStatuses)
	amendments.Get("/:id/qa/can-complete", cfg.Amendments.CanComplete)
	amendments.Put("/:id/qa/tester", cfg.Amendments.AssignTester)
	amendments.Patch("/:id/qa/checklist", cfg.Amendments.UpdateChecklist)
	amendments.Get("/:id/qa/history", cfg.Amendments.History)

	amendments.Post("/:id/comments", cfg.Comments.Create)
	amendments.Get("/:id/comments", cfg.Comments.List)

	amendments.Post("/:id/watchers", cfg.Comments.AddWatcher)
	amendments.Get("/:id/watchers", cfg.Comments.ListWatchers)
	amendments.Delete("/:id/watchers/:collaboratorID", cfg.Comments.RemoveWatcher)
	amendments.Patch("/:id/watchers/:collaboratorID", cfg.Comments.UpdateWatcherPreferences)

	amendments.Post("/:id/test-executions", cfg.Defects.RecordExecution)
	amendments.Get("/:id/test-executions", cfg.Defects.ListExecutions)

	comments := protected.Group("/comments")
	comments.Patch("/:commentID", cfg.Comments.Edit)
	comments.Delete("/:commentID", cfg.Comments.Delete)
	comments.Post("/:commentID/reactions", cfg.Comments.ToggleReaction)
	comments.Get("/:commentID/reactions", cfg.Comments.Reactions)

	notifications := protected.Group("/notifications")
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	defects := protected.Group("/defects")
	defects.Post("", cfg.Defects.Create)
	defects.Get("", cfg.Defects.List)
	defects.Get("/:id", cfg.Defects.Get)
	defects.Patch("/:id", cfg.Defects.Update)

	protected.Get("/qa/workflow/help", cfg.Amendments.WorkflowHelp)
	protected.Post("/qa/sweep/overdue", auth.RequireAdmin(), cfg.Notifications.SweepOverdue)
}
