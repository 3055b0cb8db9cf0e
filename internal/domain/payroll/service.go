package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paydesk/internal/domain/auth"
	cryptoutil "paydesk/internal/platform/crypto"
)

type Service struct {
	store      StoreAPI
	rates      RateConfig
	renderer   Renderer
	payslipDir string
	orgCode    string
	crypto     *cryptoutil.Service
}

func NewService(store StoreAPI, rates RateConfig, renderer Renderer, payslipDir, orgCode string, crypto *cryptoutil.Service) *Service {
	return &Service{
		store:      store,
		rates:      rates,
		renderer:   renderer,
		payslipDir: payslipDir,
		orgCode:    orgCode,
		crypto:     crypto,
	}
}

func (s *Service) Rates() RateConfig {
	return s.rates
}

// RunWeek computes one pay record per eligible employee for the week
// starting at weekStart. The whole batch commits or rolls back as one
// transaction; a week that already ran reports ErrDuplicateRun and writes
// nothing.
func (s *Service) RunWeek(ctx context.Context, weekStart time.Time) (RunResult, error) {
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, time.UTC)
	if weekStart.Weekday() != time.Monday {
		return RunResult{}, ErrWeekStartNotMonday
	}
	weekEnd := weekStart.AddDate(0, 0, 6)

	// Fast path. The unique constraint on (employee_id, week_start) still
	// closes the check-then-insert race inside the transaction.
	exists, err := s.store.WeekExists(ctx, weekStart)
	if err != nil {
		return RunResult{}, err
	}
	if exists {
		return RunResult{}, ErrDuplicateRun
	}

	windowStart := weekEnd.AddDate(0, 0, -(s.rates.StreakWindowDays - 1))

	var result RunResult
	err = s.store.RunInTx(ctx, func(tx RunStore) error {
		employees, err := tx.ListEligibleEmployees(ctx, s.rates.EligibleRoles)
		if err != nil {
			return err
		}
		for _, emp := range employees {
			summaries, err := tx.ListDailySummaries(ctx, emp.ID, windowStart, weekEnd)
			if err != nil {
				return err
			}
			penalties, err := tx.ListUnconsumedPenalties(ctx, emp.ID)
			if err != nil {
				return err
			}

			week := ComputeWeek(emp.ID, weekStart, weekEnd, s.rates, summaries, penalties)
			weekID, err := tx.InsertWeek(ctx, week)
			if err != nil {
				return err
			}

			if len(penalties) > 0 {
				ids := make([]int64, len(penalties))
				for i, p := range penalties {
					ids[i] = p.ID
				}
				applied, err := tx.MarkPenaltiesApplied(ctx, ids, weekID)
				if err != nil {
					return err
				}
				if applied != int64(len(ids)) {
					// Another writer consumed one of the entries after we read
					// it; our deduction total is stale and the run must not
					// commit.
					return ErrPenaltyConflict
				}
			}

			result.Processed++
			result.TotalAmount = round2(result.TotalAmount + week.FinalAmount)
		}
		return nil
	})
	if err != nil {
		return RunResult{}, err
	}

	slog.Info("weekly payroll run complete",
		"weekStart", weekStart.Format("2006-01-02"),
		"weekEnd", weekEnd.Format("2006-01-02"),
		"employeesProcessed", result.Processed,
		"totalAmount", result.TotalAmount,
	)
	return result, nil
}

func (s *Service) GetWeek(ctx context.Context, id int64) (Week, error) {
	return s.store.GetWeek(ctx, id)
}

func (s *Service) ListWeeks(ctx context.Context, weekStart *time.Time, status string, limit, offset int) ([]Week, error) {
	return s.store.ListWeeks(ctx, weekStart, status, limit, offset)
}

// Approve moves a pending record to approved. Returns true when this call
// performed the transition; an already-approved (or later) record is a
// no-op success so retries and concurrent operators cannot double-stamp.
func (s *Service) Approve(ctx context.Context, actor auth.ActorContext, id int64) (bool, error) {
	if !roleAllowed(ActionApprove, actor.Role) {
		return false, ErrUnauthorizedTransition
	}
	return s.forwardTransition(ctx, id, StatusApproved, func() (bool, error) {
		return s.store.ApproveWeek(ctx, id, actor.EmployeeID)
	})
}

func (s *Service) Process(ctx context.Context, actor auth.ActorContext, id int64) (bool, error) {
	if !roleAllowed(ActionProcess, actor.Role) {
		return false, ErrUnauthorizedTransition
	}
	return s.forwardTransition(ctx, id, StatusProcessing, func() (bool, error) {
		return s.store.ProcessWeek(ctx, id, actor.EmployeeID)
	})
}

func (s *Service) MarkPaid(ctx context.Context, actor auth.ActorContext, id int64, reference string) (bool, error) {
	if !roleAllowed(ActionMarkPaid, actor.Role) {
		return false, ErrUnauthorizedTransition
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return false, ErrEmptyPaymentReference
	}
	return s.forwardTransition(ctx, id, StatusPaid, func() (bool, error) {
		return s.store.PayWeek(ctx, id, reference)
	})
}

// forwardTransition wraps a compare-and-set status update. When the write
// misses, the current status decides between idempotent no-op (already at
// or past the target) and a genuinely invalid jump.
func (s *Service) forwardTransition(ctx context.Context, id int64, target string, cas func() (bool, error)) (bool, error) {
	moved, err := cas()
	if err != nil {
		return false, err
	}
	if moved {
		return true, nil
	}

	current, err := s.store.WeekStatus(ctx, id)
	if err != nil {
		return false, err
	}
	currentRank, ok := statusRank[current]
	if !ok {
		// on_hold: no forward transition applies until released.
		return false, ErrInvalidTransition
	}
	if currentRank >= statusRank[target] {
		return false, nil
	}
	return false, ErrInvalidTransition
}

func (s *Service) Hold(ctx context.Context, actor auth.ActorContext, id int64, reason string) (bool, error) {
	if !roleAllowed(ActionHold, actor.Role) {
		return false, ErrUnauthorizedTransition
	}
	if strings.TrimSpace(reason) == "" {
		return false, ErrEmptyHoldReason
	}
	moved, err := s.store.HoldWeek(ctx, id, strings.TrimSpace(reason))
	if err != nil {
		return false, err
	}
	if moved {
		return true, nil
	}

	current, err := s.store.WeekStatus(ctx, id)
	if err != nil {
		return false, err
	}
	if current == StatusOnHold {
		return false, nil
	}
	return false, ErrInvalidTransition
}

// Release resumes a held record at the status it was holding from.
func (s *Service) Release(ctx context.Context, actor auth.ActorContext, id int64) (bool, error) {
	if !roleAllowed(ActionRelease, actor.Role) {
		return false, ErrUnauthorizedTransition
	}
	moved, err := s.store.ReleaseWeek(ctx, id)
	if err != nil {
		return false, err
	}
	if moved {
		return true, nil
	}

	current, err := s.store.WeekStatus(ctx, id)
	if err != nil {
		return false, err
	}
	if current != StatusOnHold {
		return false, nil
	}
	return false, ErrInvalidTransition
}

// BulkApprove applies the single-record guard per id. Records already past
// pending are skipped, not errors; the count reflects actual transitions.
func (s *Service) BulkApprove(ctx context.Context, actor auth.ActorContext, ids []int64) (int, error) {
	if !roleAllowed(ActionApprove, actor.Role) {
		return 0, ErrUnauthorizedTransition
	}
	count := 0
	for _, id := range ids {
		moved, err := s.Approve(ctx, actor, id)
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrWeekNotFound) {
				continue
			}
			return count, err
		}
		if moved {
			count++
		}
	}
	return count, nil
}

func (s *Service) BulkProcess(ctx context.Context, actor auth.ActorContext, ids []int64) (int, error) {
	if !roleAllowed(ActionProcess, actor.Role) {
		return 0, ErrUnauthorizedTransition
	}
	count := 0
	for _, id := range ids {
		moved, err := s.Process(ctx, actor, id)
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrWeekNotFound) {
				continue
			}
			return count, err
		}
		if moved {
			count++
		}
	}
	return count, nil
}

// GeneratePayslip renders and stores the document for an approved record,
// at most once. A record that already has its payslip returns the stored
// path without re-rendering.
func (s *Service) GeneratePayslip(ctx context.Context, id int64) (string, error) {
	data, err := s.store.PayslipData(ctx, id)
	if err != nil {
		return "", err
	}
	if data.Week.PayslipGenerated {
		if data.Week.PayslipPath != nil {
			return *data.Week.PayslipPath, nil
		}
		return "", nil
	}
	if _, ok := statusRank[data.Week.Status]; !ok || statusRank[data.Week.Status] < statusRank[StatusApproved] {
		return "", ErrNotReady
	}

	number := PayslipNumber(s.orgCode, data.Week.EmployeeID, data.Week.WeekStart)
	rendered, err := s.renderer.Render(data, number)
	if err != nil {
		return "", err
	}
	stored := rendered
	if s.crypto != nil {
		if stored, err = s.crypto.Encrypt(rendered); err != nil {
			return "", err
		}
	}

	path := s.payslipPath(data.Week.EmployeeID, data.Week.WeekStart)
	if err := writeFileAtomic(path, stored); err != nil {
		return "", fmt.Errorf("payslip storage: %w", err)
	}

	// The flag flips only after the document is durably stored. Losing the
	// compare-and-set here means a concurrent call already stored the same
	// deterministic document at the same path.
	if _, err := s.store.MarkPayslipGenerated(ctx, id, path); err != nil {
		return "", err
	}
	return path, nil
}

// GenerateBatch renders payslips for every approved, ungenerated record of
// the week. Individual failures are logged and skipped.
func (s *Service) GenerateBatch(ctx context.Context, weekStart time.Time) (int, error) {
	ids, err := s.store.ListPayslipCandidates(ctx, weekStart)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, id := range ids {
		if _, err := s.GeneratePayslip(ctx, id); err != nil {
			slog.Warn("payslip generation failed", "payrollWeekId", id, "err", err)
			continue
		}
		count++
	}
	return count, nil
}

// OpenPayslip loads (and if needed decrypts) the stored document.
func (s *Service) OpenPayslip(ctx context.Context, id int64) ([]byte, string, error) {
	week, err := s.store.GetWeek(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !week.PayslipGenerated || week.PayslipPath == nil {
		return nil, "", ErrPayslipNotGenerated
	}
	stored, err := os.ReadFile(*week.PayslipPath)
	if err != nil {
		return nil, "", err
	}
	content := stored
	if s.crypto != nil {
		if content, err = s.crypto.Decrypt(stored); err != nil {
			return nil, "", err
		}
	}
	name := PayslipNumber(s.orgCode, week.EmployeeID, week.WeekStart) + s.renderer.Extension()
	return content, name, nil
}

// Number reports the document number a record's payslip carries.
func (s *Service) Number(week Week) string {
	return PayslipNumber(s.orgCode, week.EmployeeID, week.WeekStart)
}

func (s *Service) payslipPath(employeeID int64, weekStart time.Time) string {
	return filepath.Join(
		s.payslipDir,
		fmt.Sprintf("%d", employeeID),
		weekStart.Format("2006-01-02")+s.renderer.Extension(),
	)
}

func writeFileAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".payslip-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
