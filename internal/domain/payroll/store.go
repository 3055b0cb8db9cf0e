package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"paydesk/internal/domain/penalty"
	"paydesk/internal/domain/timeledger"
	"paydesk/internal/platform/db"
)

const pgUniqueViolation = "23505"

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) WeekExists(ctx context.Context, weekStart time.Time) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_weeks WHERE week_start = $1", weekStart).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(RunStore) error) error {
	return db.WithTransaction(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(&runStore{q: tx})
	})
}

const weekColumns = `
  id, employee_id, week_start, week_end, hours, base_amount, streak_bonus,
  deductions, final_amount, status, approved_by, processed_by, paid_at,
  payment_reference, hold_reason, held_from, payslip_generated, payslip_path, created_at`

func scanWeek(row pgx.Row) (Week, error) {
	var w Week
	err := row.Scan(
		&w.ID, &w.EmployeeID, &w.WeekStart, &w.WeekEnd, &w.Hours, &w.BaseAmount,
		&w.StreakBonus, &w.Deductions, &w.FinalAmount, &w.Status, &w.ApprovedBy,
		&w.ProcessedBy, &w.PaidAt, &w.PaymentReference, &w.HoldReason, &w.HeldFrom,
		&w.PayslipGenerated, &w.PayslipPath, &w.CreatedAt,
	)
	return w, err
}

func (s *Store) GetWeek(ctx context.Context, id int64) (Week, error) {
	week, err := scanWeek(s.DB.QueryRow(ctx, "SELECT"+weekColumns+" FROM payroll_weeks WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Week{}, ErrWeekNotFound
	}
	return week, err
}

func (s *Store) ListWeeks(ctx context.Context, weekStart *time.Time, status string, limit, offset int) ([]Week, error) {
	query := "SELECT" + weekColumns + " FROM payroll_weeks WHERE 1=1"
	var args []any
	if weekStart != nil {
		args = append(args, *weekStart)
		query += fmt.Sprintf(" AND week_start = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY employee_id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Week
	for rows.Next() {
		week, err := scanWeek(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, week)
	}
	return out, rows.Err()
}

func (s *Store) WeekStatus(ctx context.Context, id int64) (string, error) {
	var status string
	err := s.DB.QueryRow(ctx, "SELECT status FROM payroll_weeks WHERE id = $1", id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrWeekNotFound
	}
	return status, err
}

func (s *Store) ApproveWeek(ctx context.Context, id, actorID int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_weeks
    SET status = 'approved', approved_by = $2
    WHERE id = $1 AND status = 'pending'
  `, id, actorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ProcessWeek(ctx context.Context, id, actorID int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_weeks
    SET status = 'processing', processed_by = $2
    WHERE id = $1 AND status = 'approved'
  `, id, actorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) PayWeek(ctx context.Context, id int64, reference string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_weeks
    SET status = 'paid', paid_at = now(), payment_reference = $2
    WHERE id = $1 AND status = 'processing'
  `, id, reference)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) HoldWeek(ctx context.Context, id int64, reason string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_weeks
    SET status = 'on_hold', hold_reason = $2, held_from = status
    WHERE id = $1 AND status IN ('pending', 'approved', 'processing')
  `, id, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ReleaseWeek(ctx context.Context, id int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_weeks
    SET status = held_from, hold_reason = NULL, held_from = NULL
    WHERE id = $1 AND status = 'on_hold' AND held_from IS NOT NULL
  `, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) PayslipData(ctx context.Context, id int64) (PayslipData, error) {
	var data PayslipData
	week, err := scanWeek(s.DB.QueryRow(ctx, "SELECT"+weekColumns+" FROM payroll_weeks WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return data, ErrWeekNotFound
	}
	if err != nil {
		return data, err
	}
	data.Week = week

	if err := s.DB.QueryRow(ctx, "SELECT full_name, role FROM employees WHERE id = $1", week.EmployeeID).
		Scan(&data.EmployeeName, &data.EmployeeRole); err != nil {
		return data, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, amount, reason, applied_at, payroll_week_id, created_at
    FROM penalties
    WHERE payroll_week_id = $1
    ORDER BY id
  `, id)
	if err != nil {
		return data, err
	}
	defer rows.Close()
	for rows.Next() {
		var e penalty.Entry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Amount, &e.Reason, &e.AppliedAt, &e.PayrollWeekID, &e.CreatedAt); err != nil {
			return data, err
		}
		data.Penalties = append(data.Penalties, e)
	}
	return data, rows.Err()
}

func (s *Store) ListPayslipCandidates(ctx context.Context, weekStart time.Time) ([]int64, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM payroll_weeks
    WHERE week_start = $1
      AND status IN ('approved', 'processing', 'paid')
      AND payslip_generated = false
    ORDER BY employee_id
  `, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) MarkPayslipGenerated(ctx context.Context, id int64, path string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_weeks
    SET payslip_generated = true, payslip_path = $2
    WHERE id = $1 AND payslip_generated = false
  `, id, path)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type runStore struct {
	q db.Querier
}

func (r *runStore) ListEligibleEmployees(ctx context.Context, roles []string) ([]EligibleEmployee, error) {
	rows, err := r.q.Query(ctx, `
    SELECT id, role, start_date
    FROM employees
    WHERE active = true AND role = ANY($1)
    ORDER BY id
  `, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EligibleEmployee
	for rows.Next() {
		var emp EligibleEmployee
		if err := rows.Scan(&emp.ID, &emp.Role, &emp.StartDate); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (r *runStore) ListDailySummaries(ctx context.Context, employeeID int64, from, to time.Time) ([]timeledger.DailySummary, error) {
	rows, err := r.q.Query(ctx, `
    SELECT id, employee_id, work_date, billable_seconds, meets_minimum
    FROM daily_summaries
    WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
    ORDER BY work_date
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeledger.DailySummary
	for rows.Next() {
		var ds timeledger.DailySummary
		if err := rows.Scan(&ds.ID, &ds.EmployeeID, &ds.WorkDate, &ds.BillableSeconds, &ds.MeetsMinimum); err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

func (r *runStore) ListUnconsumedPenalties(ctx context.Context, employeeID int64) ([]penalty.Entry, error) {
	rows, err := r.q.Query(ctx, `
    SELECT id, employee_id, amount, reason, applied_at, payroll_week_id, created_at
    FROM penalties
    WHERE employee_id = $1 AND applied_at IS NULL
    ORDER BY id
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []penalty.Entry
	for rows.Next() {
		var e penalty.Entry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Amount, &e.Reason, &e.AppliedAt, &e.PayrollWeekID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *runStore) InsertWeek(ctx context.Context, week Week) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `
    INSERT INTO payroll_weeks
      (employee_id, week_start, week_end, hours, base_amount, streak_bonus, deductions, final_amount, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, week.EmployeeID, week.WeekStart, week.WeekEnd, week.Hours, week.BaseAmount,
		week.StreakBonus, week.Deductions, week.FinalAmount, week.Status).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, ErrDuplicateRun
		}
		return 0, err
	}
	return id, nil
}

// MarkPenaltiesApplied consumes penalties with a conditional write. Rows
// already consumed elsewhere are not touched; the caller compares the
// returned count with what it expected.
func (r *runStore) MarkPenaltiesApplied(ctx context.Context, ids []int64, weekID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.q.Exec(ctx, `
    UPDATE penalties
    SET applied_at = now(), payroll_week_id = $2
    WHERE id = ANY($1) AND applied_at IS NULL
  `, ids, weekID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
