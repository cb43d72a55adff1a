package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/appworkspm/painai/internal/activitylog"
	"github.com/appworkspm/painai/internal/auth"
	"github.com/appworkspm/painai/internal/holiday"
	"github.com/appworkspm/painai/internal/project"
	"github.com/appworkspm/painai/internal/rbac"
	"github.com/appworkspm/painai/internal/timesheet"
	"github.com/appworkspm/painai/internal/transport/middleware"
	"github.com/appworkspm/painai/internal/transport/swagger"
	"github.com/appworkspm/painai/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Handlers bundles every feature handler the router mounts.
type Handlers struct {
	Auth      *auth.Handler
	User      *user.Handler
	Timesheet *timesheet.Handler
	Project   *project.Handler
	RBAC      *rbac.Handler
	Holiday   *holiday.Handler
	Activity  *activitylog.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, redisClient *redis.Client, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, redisClient)
	httpMetrics := middleware.NewHTTPMetrics()

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(httpMetrics.Middleware)

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())
	// Prometheus scrape endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		if h.Auth == nil {
			return
		}

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			// Current user
			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)

				// User administration
				pr.Route("/users", func(ur chi.Router) {
					ur.Get("/{id}", h.User.GetUser)

					ur.Group(func(ar chi.Router) {
						ar.Use(middleware.RequireRank(auth.RoleAdmin))
						ar.Get("/", h.User.ListUsers)
						ar.Post("/", h.User.CreateUser)
						ar.Patch("/{id}/role", h.User.ChangeRole)
						ar.Delete("/{id}", h.User.DeactivateUser)

						if h.RBAC != nil {
							ar.Post("/{id}/roles", h.RBAC.AssignRoleToUser)
							ar.Get("/{id}/roles", h.RBAC.ListRolesForUser)
							ar.Delete("/{id}/roles/{roleID}", h.RBAC.RevokeRoleFromUser)
						}
					})
				})
			}

			// Timesheet routes
			if h.Timesheet != nil {
				pr.Route("/timesheets", func(tr chi.Router) {
					// User timesheet routes
					tr.Post("/", h.Timesheet.CreateTimesheet)
					tr.Get("/", h.Timesheet.ListTimesheets)
					tr.Get("/{id}", h.Timesheet.GetTimesheet)
					tr.Patch("/{id}", h.Timesheet.UpdateTimesheet)
					tr.Delete("/{id}", h.Timesheet.DeleteTimesheet)
					tr.Post("/{id}/submit", h.Timesheet.SubmitTimesheet)
					tr.Get("/{id}/history", h.Timesheet.GetHistory)

					// Approval routes gated on the manager tier
					tr.Group(func(mr chi.Router) {
						mr.Use(middleware.RequireRank(auth.RoleManager))
						mr.Patch("/{id}/approve", h.Timesheet.ApproveTimesheet)
						mr.Patch("/{id}/reject", h.Timesheet.RejectTimesheet)
					})
				})
			}

			// Project routes
			if h.Project != nil {
				pr.Route("/projects", func(jr chi.Router) {
					jr.Get("/", h.Project.ListProjects)
					jr.Get("/{id}", h.Project.GetProject)

					jr.Group(func(mr chi.Router) {
						mr.Use(middleware.RequireRank(auth.RoleManager))
						mr.Post("/", h.Project.CreateProject)
						mr.Patch("/{id}", h.Project.UpdateProject)
						mr.Delete("/{id}", h.Project.DeleteProject)
					})
				})
			}

			// RBAC administration: ADMIN rank plus the manage_rbac grant
			if h.RBAC != nil {
				pr.Group(func(ar chi.Router) {
					ar.Use(middleware.RequireRank(auth.RoleAdmin))
					ar.Use(middleware.RequirePermissions("manage_rbac"))

					ar.Route("/roles", func(rr chi.Router) {
						rr.Post("/", h.RBAC.CreateRole)
						rr.Get("/", h.RBAC.ListRoles)
						rr.Get("/{id}", h.RBAC.GetRole)
						rr.Delete("/{id}", h.RBAC.DeleteRole)
						rr.Get("/{id}/permissions", h.RBAC.ListPermissionsForRole)
						rr.Post("/{id}/permissions", h.RBAC.AssignPermissionToRole)
						rr.Delete("/{id}/permissions/{permissionID}", h.RBAC.RevokePermissionFromRole)
					})
					ar.Route("/permissions", func(pmr chi.Router) {
						pmr.Post("/", h.RBAC.CreatePermission)
						pmr.Get("/", h.RBAC.ListPermissions)
					})
				})
			}

			// Holiday calendar
			if h.Holiday != nil {
				pr.Route("/holidays", func(hr chi.Router) {
					hr.Get("/", h.Holiday.ListHolidays)

					hr.Group(func(ar chi.Router) {
						ar.Use(middleware.RequireRank(auth.RoleAdmin))
						ar.Post("/", h.Holiday.CreateHoliday)
						ar.Delete("/{id}", h.Holiday.DeleteHoliday)
					})
				})
			}

			// Activity trail
			if h.Activity != nil {
				pr.Get("/activities", h.Activity.ListActivities)
			}
		})
	})
}
