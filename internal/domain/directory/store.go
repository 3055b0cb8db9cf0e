package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("employee not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, fullName, email, role string, startDate time.Time) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (full_name, email, role, start_date)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, fullName, email, role, startDate).Scan(&id)
	return id, err
}

func (s *Store) Get(ctx context.Context, id int64) (Employee, error) {
	var emp Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, full_name, email, role, start_date, active, created_at
    FROM employees
    WHERE id = $1
  `, id).Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.Role, &emp.StartDate, &emp.Active, &emp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return emp, err
}

func (s *Store) List(ctx context.Context, role string, limit, offset int) ([]Employee, error) {
	query := `
    SELECT id, full_name, email, role, start_date, active, created_at
    FROM employees
  `
	var args []any
	if role != "" {
		query += " WHERE role = $1"
		args = append(args, role)
	}
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.Role, &emp.StartDate, &emp.Active, &emp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET active = $2 WHERE id = $1", id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
