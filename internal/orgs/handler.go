package orgs

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/statustrack/statustrack/internal/authz"
	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/pkg/httputil"
)

// Handler handles HTTP requests for the organizations module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new organizations handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validator: validator.New()}
}

// RegisterRoutes registers organization routes. All routes require auth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/organizations", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Route("/{orgID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
			r.Delete("/", h.Delete)
			r.Get("/members", h.ListMembers)
			r.Post("/members", h.AddMember)
			r.Delete("/members/{userID}", h.RemoveMember)
			r.Patch("/members/{userID}", h.UpdateMemberRole)
		})
	})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrOrganizationNotFound, Status: http.StatusNotFound},
	{Error: ErrUserNotFound, Status: http.StatusNotFound},
	{Error: ErrMemberNotFound, Status: http.StatusNotFound},
	{Error: ErrMemberExists, Status: http.StatusConflict},
	{Error: ErrSlugConflict, Status: http.StatusConflict},
	{Error: ErrEmptyUpdate, Status: http.StatusBadRequest},
	{Error: ErrInvalidRole, Status: http.StatusBadRequest},
	{Error: authz.ErrCannotRemoveOwner, Status: http.StatusBadRequest},
	{Error: authz.ErrCannotChangeOwnerRole, Status: http.StatusBadRequest},
	{Error: authz.ErrCannotAssignOwner, Status: http.StatusBadRequest},
	{Error: authz.ErrCannotRemoveSelf, Status: http.StatusBadRequest},
	{Error: authz.ErrCannotChangeOwnRole, Status: http.StatusForbidden},
	{Error: authz.ErrPermissionDenied, Status: http.StatusForbidden},
}

// CreateRequest represents organization creation request body.
type CreateRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	LogoURL string `json:"logo_url" validate:"omitempty,url"`
}

// Create handles POST /organizations.
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

	org, err := h.service.Create(r.Context(), httputil.GetUserID(r.Context()), CreateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusCreated, org)
}

// List handles GET /organizations.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.service.List(r.Context(), httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, orgs)
}

// Get handles GET /organizations/{orgID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.Get(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, org)
}

// UpdateRequest represents partial organization update request body.
type UpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	LogoURL *string `json:"logo_url" validate:"omitempty,url"`
}

// Update handles PATCH /organizations/{orgID}.
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

	org, err := h.service.Update(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "orgID"), UpdateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, org)
}

// Delete handles DELETE /organizations/{orgID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /organizations/{orgID}/members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, members)
}

// AddMemberRequest represents member addition request body.
type AddMemberRequest struct {
	Email string      `json:"email" validate:"required,email"`
	Role  domain.Role `json:"role" validate:"required"`
}

// AddMember handles POST /organizations/{orgID}/members.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	org, err := h.service.AddMember(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "orgID"), req.Email, req.Role)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, org)
}

// RemoveMember handles DELETE /organizations/{orgID}/members/{userID}.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveMember(r.Context(),
		httputil.GetUserID(r.Context()),
		chi.URLParam(r, "orgID"),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateMemberRoleRequest represents role change request body.
type UpdateMemberRoleRequest struct {
	Role domain.Role `json:"role" validate:"required"`
}

// UpdateMemberRole handles PATCH /organizations/{orgID}/members/{userID}.
func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemberRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	org, err := h.service.UpdateMemberRole(r.Context(),
		httputil.GetUserID(r.Context()),
		chi.URLParam(r, "orgID"),
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, org)
}
