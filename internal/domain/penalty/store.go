package penalty

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, employeeID int64, amount float64, reason string) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO penalties (employee_id, amount, reason)
    VALUES ($1,$2,$3)
    RETURNING id
  `, employeeID, amount, reason).Scan(&id)
	return id, err
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID int64, unconsumedOnly bool) ([]Entry, error) {
	query := `
    SELECT id, employee_id, amount, reason, applied_at, payroll_week_id, created_at
    FROM penalties
    WHERE employee_id = $1
  `
	if unconsumedOnly {
		query += " AND applied_at IS NULL"
	}
	query += " ORDER BY created_at"

	rows, err := s.DB.Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Amount, &e.Reason, &e.AppliedAt, &e.PayrollWeekID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
