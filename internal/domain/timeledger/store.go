package timeledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Upsert(ctx context.Context, employeeID int64, workDate time.Time, billableSeconds int64, meetsMinimum bool) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO daily_summaries (employee_id, work_date, billable_seconds, meets_minimum)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (employee_id, work_date) DO UPDATE
      SET billable_seconds = EXCLUDED.billable_seconds,
          meets_minimum = EXCLUDED.meets_minimum
    RETURNING id
  `, employeeID, workDate, billableSeconds, meetsMinimum).Scan(&id)
	return id, err
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID int64, from, to time.Time) ([]DailySummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, work_date, billable_seconds, meets_minimum
    FROM daily_summaries
    WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
    ORDER BY work_date
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.ID, &ds.EmployeeID, &ds.WorkDate, &ds.BillableSeconds, &ds.MeetsMinimum); err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}
