package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/academe-hq/academe/internal/platform/httpx"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
)

// Handler exposes profile endpoints.
type Handler struct {
	logger *slog.Logger
	repo   RepositoryPort
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo RepositoryPort) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers user routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

type profileResponse struct {
	User        User         `json:"user"`
	Memberships []rbac.Grant `json:"memberships"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	auth := rbac.FromContext(r.Context())
	if auth == nil {
		httpx.RespondError(w, shared.Unauthorized("authentication required"))
		return
	}

	user, err := h.repo.GetByID(r.Context(), auth.UserID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			httpx.RespondError(w, err)
			return
		}
		h.logger.Error("load profile", slog.Any("error", err))
		httpx.RespondError(w, shared.Internal(err))
		return
	}

	httpx.OK(w, profileResponse{User: user, Memberships: auth.Memberships})
}
