package payroll

import (
	"context"
	"time"

	"paydesk/internal/domain/penalty"
	"paydesk/internal/domain/timeledger"
)

type StoreAPI interface {
	WeekExists(ctx context.Context, weekStart time.Time) (bool, error)
	RunInTx(ctx context.Context, fn func(RunStore) error) error

	GetWeek(ctx context.Context, id int64) (Week, error)
	ListWeeks(ctx context.Context, weekStart *time.Time, status string, limit, offset int) ([]Week, error)
	WeekStatus(ctx context.Context, id int64) (string, error)

	ApproveWeek(ctx context.Context, id, actorID int64) (bool, error)
	ProcessWeek(ctx context.Context, id, actorID int64) (bool, error)
	PayWeek(ctx context.Context, id int64, reference string) (bool, error)
	HoldWeek(ctx context.Context, id int64, reason string) (bool, error)
	ReleaseWeek(ctx context.Context, id int64) (bool, error)

	PayslipData(ctx context.Context, id int64) (PayslipData, error)
	ListPayslipCandidates(ctx context.Context, weekStart time.Time) ([]int64, error)
	MarkPayslipGenerated(ctx context.Context, id int64, path string) (bool, error)
}

// RunStore is the transactional view used by one weekly batch. Everything a
// run reads and writes goes through the same transaction.
type RunStore interface {
	ListEligibleEmployees(ctx context.Context, roles []string) ([]EligibleEmployee, error)
	ListDailySummaries(ctx context.Context, employeeID int64, from, to time.Time) ([]timeledger.DailySummary, error)
	ListUnconsumedPenalties(ctx context.Context, employeeID int64) ([]penalty.Entry, error)
	InsertWeek(ctx context.Context, week Week) (int64, error)
	MarkPenaltiesApplied(ctx context.Context, ids []int64, weekID int64) (int64, error)
}
