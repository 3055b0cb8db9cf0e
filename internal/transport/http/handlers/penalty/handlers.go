package penaltyhandler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paydesk/internal/domain/audit"
	"paydesk/internal/domain/auth"
	"paydesk/internal/domain/penalty"
	"paydesk/internal/transport/http/api"
	"paydesk/internal/transport/http/middleware"
	"paydesk/internal/transport/http/shared"
)

type Handler struct {
	Store *penalty.Store
	Audit *audit.Service
}

func NewHandler(store *penalty.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/penalties", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RolePayrollManager, auth.RoleCEO)).Post("/", h.handleCreate)
		r.With(middleware.RequireAuth).Get("/{employeeID}", h.handleList)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EmployeeID int64   `json:"employeeId"`
		Amount     float64 `json:"amount"`
		Reason     string  `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	if payload.EmployeeID <= 0 {
		v.Add("employeeId", "must be positive")
	}
	if payload.Amount < 0 {
		v.Add("amount", "must not be negative")
	}
	v.Required("reason", payload.Reason, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Store.Create(r.Context(), payload.EmployeeID, payload.Amount, payload.Reason)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "penalty_error", "failed to create penalty", middleware.GetRequestID(r.Context()))
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	if err := h.Audit.Record(r.Context(), actor.EmployeeID, "penalty.create", "penalty", strconv.FormatInt(id, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		log.Printf("audit penalty.create failed: %v", err)
	}
	api.Created(w, map[string]int64{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "employee id must be numeric", middleware.GetRequestID(r.Context()))
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	if actor.Role == auth.RoleEmployee && actor.EmployeeID != employeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's penalties", middleware.GetRequestID(r.Context()))
		return
	}

	unconsumedOnly := r.URL.Query().Get("unconsumed") == "true"
	entries, err := h.Store.ListForEmployee(r.Context(), employeeID, unconsumedOnly)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "penalty_error", "failed to list penalties", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}
