package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"paydesk/internal/domain/payroll"
	"paydesk/internal/platform/metrics"
)

const JobWeeklyPayroll = "weekly_payroll"

// Service drives the recurring payroll automation. Each tick it tries to
// run last week's payroll; a week that already ran is recorded as a skip,
// not a failure, so the ticker can fire as often as it likes.
type Service struct {
	DB      *pgxpool.Pool
	Payroll *payroll.Service
	Metrics *metrics.Collector
}

func New(db *pgxpool.Pool, payrollSvc *payroll.Service, collector *metrics.Collector) *Service {
	return &Service{DB: db, Payroll: payrollSvc, Metrics: collector}
}

func (s *Service) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go s.loop(ctx, interval)
}

func (s *Service) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx, time.Now())
		}
	}
}

// RunOnce runs the weekly automation for the week preceding now.
func (s *Service) RunOnce(ctx context.Context, now time.Time) {
	weekStart, _ := payroll.WeekBounds(now.AddDate(0, 0, -7))

	runID := s.recordStart(ctx, JobWeeklyPayroll)
	result, err := s.Payroll.RunWeek(ctx, weekStart)
	switch {
	case errors.Is(err, payroll.ErrDuplicateRun):
		s.recordFinish(ctx, runID, "skipped", fmt.Sprintf("week %s already processed", weekStart.Format("2006-01-02")))
	case err != nil:
		s.recordFinish(ctx, runID, "failed", err.Error())
		slog.Warn("weekly payroll automation failed", "weekStart", weekStart.Format("2006-01-02"), "err", err)
	default:
		s.recordFinish(ctx, runID, "succeeded",
			fmt.Sprintf("processed %d records, total %.2f", result.Processed, result.TotalAmount))
		if s.Metrics != nil {
			s.Metrics.RecordRun(result.Processed)
		}
	}
}

func (s *Service) recordStart(ctx context.Context, jobName string) int64 {
	var id int64
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_name, status)
    VALUES ($1, 'running')
    RETURNING id
  `, jobName).Scan(&id); err != nil {
		slog.Warn("job run insert failed", "err", err)
		return 0
	}
	return id
}

func (s *Service) recordFinish(ctx context.Context, runID int64, status, detail string) {
	if runID == 0 {
		return
	}
	if _, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $2, detail = $3, finished_at = now()
    WHERE id = $1
  `, runID, status, detail); err != nil {
		slog.Warn("job run update failed", "err", err)
	}
}
