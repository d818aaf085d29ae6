package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/academe-hq/academe/internal/auth"
	"github.com/academe-hq/academe/internal/classrooms"
	"github.com/academe-hq/academe/internal/observability"
	"github.com/academe-hq/academe/internal/permissions"
	"github.com/academe-hq/academe/internal/resources"
	"github.com/academe-hq/academe/internal/roles"
	"github.com/academe-hq/academe/internal/schools"
	"github.com/academe-hq/academe/internal/students"
	"github.com/academe-hq/academe/internal/users"
	"github.com/academe-hq/academe/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthMiddleware     *auth.Middleware
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	SchoolsHandler     *schools.Handler
	ClassroomsHandler  *classrooms.Handler
	StudentsHandler    *students.Handler
	ResourcesHandler   *resources.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *permissions.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Academe defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	requireAuth := params.AuthMiddleware.RequireAuth

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r, requireAuth)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/schools", params.SchoolsHandler.MountRoutes)
		r.Route("/classrooms", params.ClassroomsHandler.MountRoutes)
		r.Route("/students", params.StudentsHandler.MountRoutes)
		r.Route("/resources", params.ResourcesHandler.MountRoutes)
		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
