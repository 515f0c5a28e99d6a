// Package employees resolves booth staff members by phone number so
// inbound traffic from staff devices is never treated as visitor traffic.
package employees

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"expoconnect_backend/internal/leads/domain"
	"expoconnect_backend/platform/apperr"
)

const employeeNotFoundMessage = "employee not found"

// Repository is the persistence port for employees.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Employee, error)
	GetByPhone(ctx context.Context, phone string) (domain.Employee, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo creates a new employees repository.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// GetByID retrieves an employee by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Employee, error) {
	query := `SELECT id, name, phone, is_active FROM employees WHERE id = $1`

	var e domain.Employee
	err := r.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.Phone, &e.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Employee{}, apperr.NotFound(employeeNotFoundMessage)
		}
		return domain.Employee{}, fmt.Errorf("get employee by id: %w", err)
	}

	return e, nil
}

// GetByPhone retrieves an active employee by exact E.164 phone number.
func (r *Repo) GetByPhone(ctx context.Context, phone string) (domain.Employee, error) {
	query := `SELECT id, name, phone, is_active FROM employees WHERE phone = $1 AND is_active = true`

	var e domain.Employee
	err := r.pool.QueryRow(ctx, query, phone).Scan(&e.ID, &e.Name, &e.Phone, &e.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Employee{}, apperr.NotFound(employeeNotFoundMessage)
		}
		return domain.Employee{}, fmt.Errorf("get employee by phone: %w", err)
	}

	return e, nil
}
