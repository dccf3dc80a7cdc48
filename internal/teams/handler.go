package teams

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

// Handler handles HTTP requests for the teams module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new teams handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validator: validator.New()}
}

// RegisterRoutes registers team routes. All routes require auth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/organizations/{orgID}/teams", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
	})
	r.Route("/teams/{teamID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/members", h.AddMember)
		r.Delete("/members/{userID}", h.RemoveMember)
		r.Patch("/members/{userID}", h.UpdateMemberRole)
	})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrTeamNotFound, Status: http.StatusNotFound},
	{Error: orgs.ErrOrganizationNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidRole, Status: http.StatusBadRequest},
	{Error: ErrEmptyUpdate, Status: http.StatusBadRequest},
	{Error: authz.ErrTargetNotOrgMember, Status: http.StatusBadRequest},
	{Error: authz.ErrTargetNotTeamMember, Status: http.StatusNotFound},
	{Error: authz.ErrAlreadyTeamMember, Status: http.StatusConflict},
	{Error: authz.ErrLastTeamAdmin, Status: http.StatusBadRequest},
	{Error: authz.ErrCannotAssignOwner, Status: http.StatusBadRequest},
	{Error: authz.ErrCannotChangeOwnRole, Status: http.StatusForbidden},
	{Error: authz.ErrPermissionDenied, Status: http.StatusForbidden},
}

// CreateRequest represents team creation request body.
type CreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Create handles POST /organizations/{orgID}/teams.
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

	team, err := h.service.Create(r.Context(),
		httputil.GetUserID(r.Context()),
		chi.URLParam(r, "orgID"),
		CreateInput(req),
	)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusCreated, team)
}

// List handles GET /organizations/{orgID}/teams.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.service.List(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, teams)
}

// Get handles GET /teams/{teamID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	team, err := h.service.Get(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, team)
}

// UpdateRequest represents partial team update request body.
type UpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// Update handles PATCH /teams/{teamID}.
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

	team, err := h.service.Update(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "teamID"), UpdateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, team)
}

// Delete handles DELETE /teams/{teamID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), httputil.GetUserID(r.Context()), chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMemberRequest represents team member addition request body.
type AddMemberRequest struct {
	UserID string      `json:"user_id" validate:"required"`
	Role   domain.Role `json:"role" validate:"required"`
}

// AddMember handles POST /teams/{teamID}/members.
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

	team, err := h.service.AddMember(r.Context(),
		httputil.GetUserID(r.Context()),
		chi.URLParam(r, "teamID"),
		req.UserID,
		req.Role,
	)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, team)
}

// RemoveMember handles DELETE /teams/{teamID}/members/{userID}.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	team, err := h.service.RemoveMember(r.Context(),
		httputil.GetUserID(r.Context()),
		chi.URLParam(r, "teamID"),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, team)
}

// UpdateMemberRoleRequest represents team role change request body.
type UpdateMemberRoleRequest struct {
	Role domain.Role `json:"role" validate:"required"`
}

// UpdateMemberRole handles PATCH /teams/{teamID}/members/{userID}.
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

	team, err := h.service.UpdateMemberRole(r.Context(),
		httputil.GetUserID(r.Context()),
		chi.URLParam(r, "teamID"),
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, team)
}
