package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/TranslateGo/internal/service"
	"github.com/utafrali/TranslateGo/pkg/httputil"
)

// AccountHandler serves the caller's own account.
type AccountHandler struct {
	service *service.AccountService
	logger  *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(svc *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{service: svc, logger: logger}
}

// Me handles GET /api/v1/users/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), principal(r).ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, profile)
}
