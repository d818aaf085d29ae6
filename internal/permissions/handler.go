package permissions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/academe-hq/academe/internal/platform/httpx"
	"github.com/academe-hq/academe/internal/shared"
)

// Handler exposes the permission catalog over HTTP.
type Handler struct {
	logger   *slog.Logger
	registry *Registry
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, registry *Registry) *Handler {
	return &Handler{logger: logger, registry: registry}
}

// MountRoutes registers permission routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	perms, err := h.registry.List(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, shared.Internal(err))
		return
	}
	httpx.OK(w, perms)
}
