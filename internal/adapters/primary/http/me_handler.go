package http

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	mw "github.com/lorrc/service-desk-kpi/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-kpi/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-kpi/internal/core/errors"
	"github.com/lorrc/service-desk-kpi/internal/core/ports"
)

// PermissionsResponse defines the JSON response for user permissions.
type PermissionsResponse struct {
	Permissions []string `json:"permissions"`
	CanViewAll  bool     `json:"canViewAllProjects"`
}

// MeHandler handles HTTP requests for the authenticated user.
type MeHandler struct {
	authzService ports.AuthorizationService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(
	authzService ports.AuthorizationService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *MeHandler {
	return &MeHandler{
		authzService: authzService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "me"),
	}
}

// RegisterRoutes registers the /me routes.
func (h *MeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/permissions", h.HandlePermissions)
}

// HandlePermissions handles GET /me/permissions. Report clients use it to
// decide whether a projectId must be supplied.
func (h *MeHandler) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	permissions, err := h.authzService.GetPermissions(r.Context(), claims.UserID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	permissions = slices.Clone(permissions)
	if permissions == nil {
		permissions = []string{}
	}
	slices.Sort(permissions)

	WriteJSON(w, http.StatusOK, PermissionsResponse{
		Permissions: permissions,
		CanViewAll:  slices.Contains(permissions, domain.PermissionReportsReadAll),
	})
}
