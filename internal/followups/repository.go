package followups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	convdomain "expoconnect_backend/internal/conversation/domain"
	"expoconnect_backend/platform/apperr"
)

const followUpNotFoundMessage = "follow-up not found"

// Repository is the persistence port for follow-ups.
type Repository interface {
	Create(ctx context.Context, leadID uuid.UUID, kind convdomain.FollowUpKind, scheduledFor time.Time, notes string) (FollowUp, error)
	GetByID(ctx context.Context, id uuid.UUID) (FollowUp, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]FollowUp, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo creates a new follow-ups repository.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Create inserts a pending follow-up.
func (r *Repo) Create(ctx context.Context, leadID uuid.UUID, kind convdomain.FollowUpKind, scheduledFor time.Time, notes string) (FollowUp, error) {
	query := `
		INSERT INTO followups (lead_id, kind, scheduled_for, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lead_id, kind, scheduled_for, status, notes, created_at`

	var f FollowUp
	err := r.pool.QueryRow(ctx, query, leadID, kind, scheduledFor, notes).
		Scan(&f.ID, &f.LeadID, &f.Kind, &f.ScheduledFor, &f.Status, &f.Notes, &f.CreatedAt)
	if err != nil {
		return FollowUp{}, fmt.Errorf("create follow-up: %w", err)
	}

	return f, nil
}

// GetByID retrieves one follow-up.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (FollowUp, error) {
	query := `
		SELECT id, lead_id, kind, scheduled_for, status, notes, created_at
		FROM followups WHERE id = $1`

	var f FollowUp
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&f.ID, &f.LeadID, &f.Kind, &f.ScheduledFor, &f.Status, &f.Notes, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FollowUp{}, apperr.NotFound(followUpNotFoundMessage)
		}
		return FollowUp{}, fmt.Errorf("get follow-up: %w", err)
	}

	return f, nil
}

// ListByLead retrieves a lead's follow-ups, soonest first.
func (r *Repo) ListByLead(ctx context.Context, leadID uuid.UUID) ([]FollowUp, error) {
	query := `
		SELECT id, lead_id, kind, scheduled_for, status, notes, created_at
		FROM followups
		WHERE lead_id = $1
		ORDER BY scheduled_for ASC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list follow-ups: %w", err)
	}
	defer rows.Close()

	var followUps []FollowUp
	for rows.Next() {
		var f FollowUp
		if err := rows.Scan(&f.ID, &f.LeadID, &f.Kind, &f.ScheduledFor, &f.Status, &f.Notes, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		followUps = append(followUps, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow-ups: %w", err)
	}

	return followUps, nil
}

// UpdateStatus moves a follow-up through its lifecycle.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE followups SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update follow-up status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(followUpNotFoundMessage)
	}

	return nil
}
