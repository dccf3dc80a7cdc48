package incidents

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/statustrack/statustrack/internal/authz"
	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/orgs"
	"github.com/statustrack/statustrack/internal/pkg/httputil"
)

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validator: validator.New()}
}

// RegisterRoutes registers incident routes. All routes require auth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/organizations/{orgID}/incidents", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
	})
	r.Route("/incidents/{incidentID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: orgs.ErrOrganizationNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: ErrInvalidSeverity, Status: http.StatusBadRequest},
	{Error: ErrServiceNotInOrganization, Status: http.StatusBadRequest},
	{Error: ErrEmptyUpdate, Status: http.StatusBadRequest},
	{Error: authz.ErrPermissionDenied, Status: http.StatusForbidden},
}

// CreateRequest represents incident creation request body.
type CreateRequest struct {
	Title            string                  `json:"title" validate:"required,min=1,max=300"`
	Status           domain.IncidentStatus   `json:"status"`
	Severity         domain.IncidentSeverity `json:"severity"`
	AffectedServices []string                `json:"affected_services"`
	Message          string                  `json:"message" validate:"max=5000"`
}

// Create handles POST /organizations/{orgID}/incidents.
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

	incident, err := h.service.Create(r.Context(),
		httputil.GetUserID(r.Context()),
		chi.URLParam(r, "orgID"),
		CreateInput(req),
	)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusCreated, incident)
}

// List handles GET /organizations/{orgID}/incidents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.service.List(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, incidents)
}

// Get handles GET /incidents/{incidentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.Get(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "incidentID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, incident)
}

// UpdateRequest represents partial incident update request body.
type UpdateRequest struct {
	Title            *string                  `json:"title" validate:"omitempty,min=1,max=300"`
	Status           *domain.IncidentStatus   `json:"status"`
	Severity         *domain.IncidentSeverity `json:"severity"`
	AffectedServices *[]string                `json:"affected_services"`
	Message          *string                  `json:"message" validate:"omitempty,max=5000"`
}

// Update handles PATCH /incidents/{incidentID}.
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

	incident, err := h.service.Update(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "incidentID"), UpdateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, incident)
}

// Delete handles DELETE /incidents/{incidentID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "incidentID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
