package timeledgerhandler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"paydesk/internal/domain/auth"
	"paydesk/internal/domain/timeledger"
	"paydesk/internal/transport/http/api"
	"paydesk/internal/transport/http/middleware"
	"paydesk/internal/transport/http/shared"
)

type Handler struct {
	Store *timeledger.Store
}

func NewHandler(store *timeledger.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timeledger", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RolePayrollManager, auth.RoleManager)).Post("/summaries", h.handleUpsert)
		r.With(middleware.RequireAuth).Get("/summaries/{employeeID}", h.handleList)
	})
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EmployeeID      int64  `json:"employeeId"`
		WorkDate        string `json:"workDate"`
		BillableSeconds int64  `json:"billableSeconds"`
		MeetsMinimum    bool   `json:"meetsMinimum"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	if payload.EmployeeID <= 0 {
		v.Add("employeeId", "must be positive")
	}
	if payload.BillableSeconds < 0 {
		v.Add("billableSeconds", "must not be negative")
	}
	workDate, _ := v.Date("workDate", payload.WorkDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Store.Upsert(r.Context(), payload.EmployeeID, workDate, payload.BillableSeconds, payload.MeetsMinimum)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "timeledger_error", "failed to record daily summary", middleware.GetRequestID(r.Context()))
		return
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
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's time", middleware.GetRequestID(r.Context()))
		return
	}

	from, err := shared.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "from must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}
	to, err := shared.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "to must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -28)
	}

	summaries, err := h.Store.ListForEmployee(r.Context(), employeeID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "timeledger_error", "failed to list daily summaries", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summaries, middleware.GetRequestID(r.Context()))
}
