package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/TranslateGo/internal/service"
	"github.com/utafrali/TranslateGo/pkg/httputil"
	"github.com/utafrali/TranslateGo/pkg/pagination"
	"github.com/utafrali/TranslateGo/pkg/validator"
)

// TranslationHandler serves the caller's translation jobs.
type TranslationHandler struct {
	service *service.TranslationService
	logger  *slog.Logger
}

// NewTranslationHandler creates a TranslationHandler.
func NewTranslationHandler(svc *service.TranslationService, logger *slog.Logger) *TranslationHandler {
	return &TranslationHandler{service: svc, logger: logger}
}

// CreateTranslationRequest is the body of POST /api/v1/translations.
type CreateTranslationRequest struct {
	SourceLang string `json:"source_lang" validate:"required,lang"`
	TargetLang string `json:"target_lang" validate:"required,lang"`
	Text       string `json:"text" validate:"required,max=5000"`
}

// Create handles POST /api/v1/translations
func (h *TranslationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTranslationRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	job, err := h.service.Create(r.Context(), service.CreateTranslationInput{
		AccountID:  principal(r).ID,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Text:       req.Text,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusAccepted, job)
}

// List handles GET /api/v1/translations
func (h *TranslationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), principal(r).ID, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, page)
}

// Get handles GET /api/v1/translations/{id}
func (h *TranslationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	job, err := h.service.Get(r.Context(), principal(r).ID, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, job)
}
