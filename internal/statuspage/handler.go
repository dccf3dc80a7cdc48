package statuspage

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/statustrack/statustrack/internal/catalog"
	"github.com/statustrack/statustrack/internal/orgs"
	"github.com/statustrack/statustrack/internal/pkg/httputil"
)

// Handler handles the public, unauthenticated status page endpoints.
type Handler struct {
	service   *Service
	validator *validator.Validate
	limiter   *ipLimiter
}

// NewHandler creates a new status page handler. subscribeRate is requests
// per second per client IP on the subscription endpoints.
func NewHandler(service *Service, subscribeRate float64, subscribeBurst int) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
		limiter:   newIPLimiter(subscribeRate, subscribeBurst),
	}
}

// RegisterRoutes registers the public routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/{slug}", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Get("/services/{serviceID}/uptime", h.Uptime)
		r.With(h.limiter.middleware).Post("/subscribe", h.Subscribe)
		r.With(h.limiter.middleware).Post("/unsubscribe", h.Unsubscribe)
	})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: orgs.ErrOrganizationNotFound, Status: http.StatusNotFound, Message: "status page not found"},
	{Error: catalog.ErrServiceNotFound, Status: http.StatusNotFound},
	{Error: ErrAlreadySubscribed, Status: http.StatusConflict},
}

// Status handles GET /{slug}/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Status(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, page)
}

// Uptime handles GET /{slug}/services/{serviceID}/uptime.
func (h *Handler) Uptime(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Uptime(r.Context(), chi.URLParam(r, "slug"), chi.URLParam(r, "serviceID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, report)
}

// SubscribeRequest represents a subscription request body.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Subscribe handles POST /{slug}/subscribe.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	subscriber, err := h.service.Subscribe(r.Context(), chi.URLParam(r, "slug"), req.Email)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusCreated, subscriber)
}

// Unsubscribe handles POST /{slug}/unsubscribe. It answers 200 whether or
// not the address was subscribed.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if err := h.service.Unsubscribe(r.Context(), chi.URLParam(r, "slug"), req.Email); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}
