package payrollhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"paydesk/internal/domain/audit"
	"paydesk/internal/domain/auth"
	"paydesk/internal/domain/notifications"
	"paydesk/internal/domain/payroll"
	"paydesk/internal/platform/metrics"
	"paydesk/internal/transport/http/api"
	"paydesk/internal/transport/http/middleware"
	"paydesk/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Audit   *audit.Service
	Notify  *notifications.Service
	Metrics *metrics.Collector
}

func NewHandler(service *payroll.Service, auditSvc *audit.Service, notify *notifications.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Notify: notify, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RolePayrollManager)).Post("/run", h.handleRunWeek)
		r.With(middleware.RequireAuth).Get("/weeks", h.handleListWeeks)
		r.With(middleware.RequireAuth).Get("/weeks/{weekID}", h.handleGetWeek)

		r.With(middleware.RequireAuth).Post("/weeks/approve", h.handleBulkApprove)
		r.With(middleware.RequireAuth).Post("/weeks/process", h.handleBulkProcess)
		r.With(middleware.RequireAuth).Post("/weeks/{weekID}/approve", h.handleApprove)
		r.With(middleware.RequireAuth).Post("/weeks/{weekID}/process", h.handleProcess)
		r.With(middleware.RequireAuth).Post("/weeks/{weekID}/pay", h.handleMarkPaid)
		r.With(middleware.RequireAuth).Post("/weeks/{weekID}/hold", h.handleHold)
		r.With(middleware.RequireAuth).Post("/weeks/{weekID}/release", h.handleRelease)

		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RolePayrollManager)).Post("/weeks/{weekID}/payslip", h.handleGeneratePayslip)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RolePayrollManager)).Post("/payslips/generate", h.handleGenerateBatch)
		r.With(middleware.RequireAuth).Get("/weeks/{weekID}/payslip", h.handleDownloadPayslip)
	})
}

// writeServiceError translates the engine's error taxonomy to HTTP codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrDuplicateRun):
		api.Fail(w, http.StatusConflict, "duplicate_run", err.Error(), requestID)
	case errors.Is(err, payroll.ErrUnauthorizedTransition):
		api.Fail(w, http.StatusForbidden, "unauthorized_transition", err.Error(), requestID)
	case errors.Is(err, payroll.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	case errors.Is(err, payroll.ErrPenaltyConflict):
		api.Fail(w, http.StatusConflict, "penalty_conflict", err.Error(), requestID)
	case errors.Is(err, payroll.ErrNotReady):
		api.Fail(w, http.StatusConflict, "not_ready", err.Error(), requestID)
	case errors.Is(err, payroll.ErrWeekNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, payroll.ErrPayslipNotGenerated):
		api.Fail(w, http.StatusNotFound, "payslip_not_generated", err.Error(), requestID)
	case errors.Is(err, payroll.ErrEmptyPaymentReference),
		errors.Is(err, payroll.ErrEmptyHoldReason),
		errors.Is(err, payroll.ErrWeekStartNotMonday):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "payroll_error", "payroll operation failed", requestID)
	}
}

func weekIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "weekID"), 10, 64)
}

func (h *Handler) record(r *http.Request, action, entityID string, detail any) {
	actor, _ := middleware.GetActor(r.Context())
	if err := h.Audit.Record(r.Context(), actor.EmployeeID, action, "payroll_week", entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), detail); err != nil {
		log.Printf("audit %s failed: %v", action, err)
	}
}

func (h *Handler) notifyWeek(r *http.Request, weekID int64, kind, title, body string) {
	week, err := h.Service.GetWeek(r.Context(), weekID)
	if err != nil {
		log.Printf("notify lookup for week %d failed: %v", weekID, err)
		return
	}
	if err := h.Notify.Notify(r.Context(), week.EmployeeID, kind, title, body); err != nil {
		log.Printf("notify %s failed: %v", kind, err)
	}
}

func (h *Handler) handleRunWeek(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WeekStart string `json:"weekStart"`
	}
	if r.Body != nil {
		// An empty body means "run last week".
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	var weekStart time.Time
	if payload.WeekStart == "" {
		weekStart, _ = payroll.WeekBounds(time.Now().UTC().AddDate(0, 0, -7))
	} else {
		parsed, err := shared.ParseDate(payload.WeekStart)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_request", "weekStart must be a valid date in YYYY-MM-DD format", middleware.GetRequestID(r.Context()))
			return
		}
		weekStart = parsed
	}

	result, err := h.Service.RunWeek(r.Context(), weekStart)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordRun(result.Processed)
	}
	h.record(r, "payroll.run", weekStart.Format("2006-01-02"), result)
	api.Success(w, map[string]any{
		"processed":   result.Processed,
		"totalAmount": result.TotalAmount,
		"message":     fmt.Sprintf("Processed %d payroll records", result.Processed),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListWeeks(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)

	var weekStart *time.Time
	if raw := r.URL.Query().Get("weekStart"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_request", "weekStart must be a valid date in YYYY-MM-DD format", middleware.GetRequestID(r.Context()))
			return
		}
		weekStart = &parsed
	}

	weeks, err := h.Service.ListWeeks(r.Context(), weekStart, r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	api.Success(w, weeks, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetWeek(w http.ResponseWriter, r *http.Request) {
	id, err := weekIDParam(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "week id must be numeric", middleware.GetRequestID(r.Context()))
		return
	}

	week, err := h.Service.GetWeek(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	if actor.Role == auth.RoleEmployee && week.EmployeeID != actor.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's payroll", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, week, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "payroll.approve", func(actor auth.ActorContext, id int64) (bool, error) {
		return h.Service.Approve(r.Context(), actor, id)
	}, func(id int64) {
		h.notifyWeek(r, id, notifications.TypePayrollApproved, "Payroll approved", "Your weekly pay record has been approved.")
	})
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "payroll.process", func(actor auth.ActorContext, id int64) (bool, error) {
		return h.Service.Process(r.Context(), actor, id)
	}, nil)
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PaymentReference string `json:"paymentReference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload", middleware.GetRequestID(r.Context()))
		return
	}
	h.handleTransition(w, r, "payroll.mark_paid", func(actor auth.ActorContext, id int64) (bool, error) {
		return h.Service.MarkPaid(r.Context(), actor, id, payload.PaymentReference)
	}, func(id int64) {
		h.notifyWeek(r, id, notifications.TypePayrollPaid, "Payroll paid", "Your weekly pay has been paid out.")
	})
}

func (h *Handler) handleHold(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload", middleware.GetRequestID(r.Context()))
		return
	}
	h.handleTransition(w, r, "payroll.hold", func(actor auth.ActorContext, id int64) (bool, error) {
		return h.Service.Hold(r.Context(), actor, id, payload.Reason)
	}, func(id int64) {
		h.notifyWeek(r, id, notifications.TypePayrollOnHold, "Payroll on hold", "Your weekly pay record was placed on hold: "+payload.Reason)
	})
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "payroll.release", func(actor auth.ActorContext, id int64) (bool, error) {
		return h.Service.Release(r.Context(), actor, id)
	}, nil)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, action string, apply func(auth.ActorContext, int64) (bool, error), onTransition func(int64)) {
	id, err := weekIDParam(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "week id must be numeric", middleware.GetRequestID(r.Context()))
		return
	}
	actor, _ := middleware.GetActor(r.Context())

	transitioned, err := apply(actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if transitioned {
		h.record(r, action, strconv.FormatInt(id, 10), nil)
		if onTransition != nil {
			onTransition(id)
		}
	}
	api.Success(w, map[string]any{"id": id, "transitioned": transitioned}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBulkApprove(w http.ResponseWriter, r *http.Request) {
	h.handleBulk(w, r, "payroll.bulk_approve", "approvedCount", func(actor auth.ActorContext, ids []int64) (int, error) {
		return h.Service.BulkApprove(r.Context(), actor, ids)
	})
}

func (h *Handler) handleBulkProcess(w http.ResponseWriter, r *http.Request) {
	h.handleBulk(w, r, "payroll.bulk_process", "processedCount", func(actor auth.ActorContext, ids []int64) (int, error) {
		return h.Service.BulkProcess(r.Context(), actor, ids)
	})
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request, action, countField string, apply func(auth.ActorContext, []int64) (int, error)) {
	var payload struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload", middleware.GetRequestID(r.Context()))
		return
	}
	if len(payload.IDs) == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "ids must not be empty", middleware.GetRequestID(r.Context()))
		return
	}
	actor, _ := middleware.GetActor(r.Context())

	count, err := apply(actor, payload.IDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.record(r, action, fmt.Sprintf("%v", payload.IDs), map[string]int{countField: count})
	api.Success(w, map[string]any{
		countField: count,
		"message":  fmt.Sprintf("Processed %d payroll records", count),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGeneratePayslip(w http.ResponseWriter, r *http.Request) {
	id, err := weekIDParam(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "week id must be numeric", middleware.GetRequestID(r.Context()))
		return
	}

	path, err := h.Service.GeneratePayslip(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordPayslips(1)
	}
	h.record(r, "payroll.payslip.generate", strconv.FormatInt(id, 10), map[string]string{"path": path})
	h.notifyWeek(r, id, notifications.TypePayslipPublished, "Payslip available", "Your weekly payslip is ready for download.")

	resp := map[string]string{"documentReference": path}
	if week, err := h.Service.GetWeek(r.Context(), id); err == nil {
		resp["payslipNumber"] = h.Service.Number(week)
	}
	api.Success(w, resp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WeekStart string `json:"weekStart"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload", middleware.GetRequestID(r.Context()))
		return
	}
	weekStart, err := shared.ParseDate(payload.WeekStart)
	if err != nil || weekStart.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "weekStart must be a valid date in YYYY-MM-DD format", middleware.GetRequestID(r.Context()))
		return
	}

	count, err := h.Service.GenerateBatch(r.Context(), weekStart)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordPayslips(count)
	}
	h.record(r, "payroll.payslip.generate_batch", payload.WeekStart, map[string]int{"generated": count})
	api.Success(w, map[string]any{
		"generatedCount": count,
		"message":        fmt.Sprintf("Generated %d payslips", count),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	id, err := weekIDParam(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "week id must be numeric", middleware.GetRequestID(r.Context()))
		return
	}

	week, err := h.Service.GetWeek(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	actor, _ := middleware.GetActor(r.Context())
	if actor.Role == auth.RoleEmployee && week.EmployeeID != actor.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot download another employee's payslip", middleware.GetRequestID(r.Context()))
		return
	}

	content, name, err := h.Service.OpenPayslip(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
