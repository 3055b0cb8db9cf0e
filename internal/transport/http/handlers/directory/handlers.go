package directoryhandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paydesk/internal/domain/audit"
	"paydesk/internal/domain/auth"
	"paydesk/internal/domain/directory"
	"paydesk/internal/transport/http/api"
	"paydesk/internal/transport/http/middleware"
	"paydesk/internal/transport/http/shared"
)

type Handler struct {
	Store *directory.Store
	Audit *audit.Service
}

func NewHandler(store *directory.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RolePayrollManager, auth.RoleManager, auth.RoleCEO)).Get("/", h.handleList)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/", h.handleCreate)
		r.With(middleware.RequireAuth).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Patch("/{employeeID}/active", h.handleSetActive)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	employees, err := h.Store.List(r.Context(), r.URL.Query().Get("role"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "directory_error", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FullName  string `json:"fullName"`
		Email     string `json:"email"`
		Role      string `json:"role"`
		StartDate string `json:"startDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("fullName", payload.FullName, "is required")
	v.Required("email", payload.Email, "is required")
	v.Required("role", payload.Role, "is required")
	v.Enum("role", payload.Role, auth.AllRoles, "must be a known role")
	startDate, _ := v.Date("startDate", payload.StartDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Store.Create(r.Context(), payload.FullName, payload.Email, payload.Role, startDate)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "directory_error", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	if err := h.Audit.Record(r.Context(), actor.EmployeeID, "directory.employee.create", "employee", strconv.FormatInt(id, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		log.Printf("audit directory.employee.create failed: %v", err)
	}
	api.Created(w, map[string]int64{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "employee id must be numeric", middleware.GetRequestID(r.Context()))
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	if actor.Role == auth.RoleEmployee && actor.EmployeeID != id {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee", middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Store.Get(r.Context(), id)
	if errors.Is(err, directory.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "directory_error", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "employee id must be numeric", middleware.GetRequestID(r.Context()))
		return
	}
	var payload struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.SetActive(r.Context(), id, payload.Active); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "directory_error", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	if err := h.Audit.Record(r.Context(), actor.EmployeeID, "directory.employee.set_active", "employee", strconv.FormatInt(id, 10), middleware.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		log.Printf("audit directory.employee.set_active failed: %v", err)
	}
	api.Success(w, map[string]any{"id": id, "active": payload.Active}, middleware.GetRequestID(r.Context()))
}
