package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/statustrack/statustrack/internal/authz"
	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/orgs"
	"github.com/statustrack/statustrack/internal/pkg/httputil"
)

// Handler handles HTTP requests for the catalog module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validator: validator.New()}
}

// RegisterRoutes registers service routes. All routes require auth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/organizations/{orgID}/services", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
	})
	r.Route("/services/{serviceID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/status-events", h.StatusLog)
	})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrServiceNotFound, Status: http.StatusNotFound},
	{Error: orgs.ErrOrganizationNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: ErrEmptyUpdate, Status: http.StatusBadRequest},
	{Error: authz.ErrPermissionDenied, Status: http.StatusForbidden},
}

// CreateRequest represents service creation request body.
type CreateRequest struct {
	Name        string               `json:"name" validate:"required,min=1,max=200"`
	Description string               `json:"description" validate:"max=2000"`
	Status      domain.ServiceStatus `json:"status"`
}

// Create handles POST /organizations/{orgID}/services.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	service, err := h.service.Create(r.Context(),
		httputil.GetUserID(r.Context()),
		chi.URLParam(r, "orgID"),
		CreateInput(req),
	)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusCreated, service)
}

// List handles GET /organizations/{orgID}/services.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.List(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, services)
}

// Get handles GET /services/{serviceID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	service, err := h.service.Get(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "serviceID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, service)
}

// UpdateRequest represents partial service update request body.
type UpdateRequest struct {
	Name        *string               `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string               `json:"description" validate:"omitempty,max=2000"`
	Status      *domain.ServiceStatus `json:"status"`
}

// Update handles PATCH /services/{serviceID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	service, err := h.service.Update(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "serviceID"), UpdateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, service)
}

// Delete handles DELETE /services/{serviceID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "serviceID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusLog handles GET /services/{serviceID}/status-events.
func (h *Handler) StatusLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	events, err := h.service.StatusLog(r.Context(),
		httputil.GetUserID(r.Context()),
		chi.URLParam(r, "serviceID"),
		limit, offset,
	)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, events)
}
