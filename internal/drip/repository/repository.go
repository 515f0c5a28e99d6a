package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"expoconnect_backend/internal/drip/domain"
	"expoconnect_backend/platform/apperr"
)

const (
	definitionNotFoundMessage = "drip definition not found"
	assignmentNotFoundMessage = "drip assignment not found"

	uniqueViolationCode = "23505"
)

// Repo implements DripRepository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new drip repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements DripRepository.
var _ DripRepository = (*Repo)(nil)

// GetDefinitionByID retrieves a definition with its steps.
func (r *Repo) GetDefinitionByID(ctx context.Context, id uuid.UUID) (domain.Definition, error) {
	query := `SELECT id, name, created_at FROM drip_definitions WHERE id = $1`

	var def domain.Definition
	err := r.pool.QueryRow(ctx, query, id).Scan(&def.ID, &def.Name, &def.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Definition{}, apperr.NotFound(definitionNotFoundMessage)
		}
		return domain.Definition{}, fmt.Errorf("get drip definition: %w", err)
	}

	if def.Steps, err = r.listSteps(ctx, def.ID); err != nil {
		return domain.Definition{}, err
	}

	return def, nil
}

// GetDefinitionByName retrieves a definition by its unique name.
func (r *Repo) GetDefinitionByName(ctx context.Context, name string) (domain.Definition, error) {
	query := `SELECT id, name, created_at FROM drip_definitions WHERE name = $1`

	var def domain.Definition
	err := r.pool.QueryRow(ctx, query, name).Scan(&def.ID, &def.Name, &def.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Definition{}, apperr.NotFound(definitionNotFoundMessage)
		}
		return domain.Definition{}, fmt.Errorf("get drip definition by name: %w", err)
	}

	if def.Steps, err = r.listSteps(ctx, def.ID); err != nil {
		return domain.Definition{}, err
	}

	return def, nil
}

// ListDefinitions retrieves all definitions with their steps.
func (r *Repo) ListDefinitions(ctx context.Context) ([]domain.Definition, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM drip_definitions ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list drip definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.Definition
	for rows.Next() {
		var def domain.Definition
		if err := rows.Scan(&def.ID, &def.Name, &def.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan drip definition: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drip definitions: %w", err)
	}

	for i := range defs {
		if defs[i].Steps, err = r.listSteps(ctx, defs[i].ID); err != nil {
			return nil, err
		}
	}

	return defs, nil
}

// UpsertDefinition creates or replaces a named definition's steps. Rows
// already materialized for existing assignments are untouched; edits apply
// only to future enrollments.
func (r *Repo) UpsertDefinition(ctx context.Context, name string, steps []domain.Step) (domain.Definition, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("begin upsert definition: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var def domain.Definition
	err = tx.QueryRow(ctx, `
		INSERT INTO drip_definitions (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at`, name).
		Scan(&def.ID, &def.Name, &def.CreatedAt)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("upsert drip definition: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM drip_steps WHERE drip_id = $1`, def.ID); err != nil {
		return domain.Definition{}, fmt.Errorf("clear drip steps: %w", err)
	}

	for _, step := range steps {
		_, err := tx.Exec(ctx, `
			INSERT INTO drip_steps (drip_id, template, day_offset, time_of_day, sort_order)
			VALUES ($1, $2, $3, $4, $5)`,
			def.ID, step.Template, step.DayOffset, step.TimeOfDay, step.SortOrder)
		if err != nil {
			return domain.Definition{}, fmt.Errorf("insert drip step: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Definition{}, fmt.Errorf("commit upsert definition: %w", err)
	}

	if def.Steps, err = r.listSteps(ctx, def.ID); err != nil {
		return domain.Definition{}, err
	}

	return def, nil
}

// Enroll creates an assignment and materializes one scheduled message per
// step in a single transaction. The partial unique index on live
// assignments turns a double enrollment into a Conflict.
func (r *Repo) Enroll(ctx context.Context, leadID uuid.UUID, def domain.Definition, startedAt time.Time) (domain.Assignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("begin enroll: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var assignment domain.Assignment
	err = tx.QueryRow(ctx, `
		INSERT INTO drip_assignments (lead_id, drip_id, status, started_at)
		VALUES ($1, $2, 'active', $3)
		RETURNING id, lead_id, drip_id, status, started_at, paused_at, stopped_at`,
		leadID, def.ID, startedAt).
		Scan(&assignment.ID, &assignment.LeadID, &assignment.DripID, &assignment.Status,
			&assignment.StartedAt, &assignment.PausedAt, &assignment.StoppedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.Assignment{}, apperr.Conflict("lead already has a live drip assignment")
		}
		return domain.Assignment{}, fmt.Errorf("create drip assignment: %w", err)
	}

	for _, step := range def.Steps {
		_, err := tx.Exec(ctx, `
			INSERT INTO scheduled_messages (assignment_id, lead_id, step_sort_order, body_template, scheduled_at, status)
			VALUES ($1, $2, $3, $4, $5, 'pending')`,
			assignment.ID, leadID, step.SortOrder, step.Template,
			domain.ScheduleStepAt(startedAt, step))
		if err != nil {
			return domain.Assignment{}, fmt.Errorf("materialize scheduled message: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Assignment{}, fmt.Errorf("commit enroll: %w", err)
	}

	return assignment, nil
}

// GetAssignment retrieves one assignment by ID.
func (r *Repo) GetAssignment(ctx context.Context, id uuid.UUID) (domain.Assignment, error) {
	query := `
		SELECT id, lead_id, drip_id, status, started_at, paused_at, stopped_at
		FROM drip_assignments WHERE id = $1`

	var a domain.Assignment
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&a.ID, &a.LeadID, &a.DripID, &a.Status, &a.StartedAt, &a.PausedAt, &a.StoppedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Assignment{}, apperr.NotFound(assignmentNotFoundMessage)
		}
		return domain.Assignment{}, fmt.Errorf("get drip assignment: %w", err)
	}

	return a, nil
}

// GetLiveAssignmentByLead retrieves the lead's single non-terminal
// assignment, if any.
func (r *Repo) GetLiveAssignmentByLead(ctx context.Context, leadID uuid.UUID) (domain.Assignment, error) {
	query := `
		SELECT id, lead_id, drip_id, status, started_at, paused_at, stopped_at
		FROM drip_assignments
		WHERE lead_id = $1 AND status IN ('active', 'paused')`

	var a domain.Assignment
	err := r.pool.QueryRow(ctx, query, leadID).
		Scan(&a.ID, &a.LeadID, &a.DripID, &a.Status, &a.StartedAt, &a.PausedAt, &a.StoppedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Assignment{}, apperr.NotFound(assignmentNotFoundMessage)
		}
		return domain.Assignment{}, fmt.Errorf("get live drip assignment: %w", err)
	}

	return a, nil
}

// Pause suspends dispatch for an active assignment.
func (r *Repo) Pause(ctx context.Context, assignmentID uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE drip_assignments
		SET status = 'paused', paused_at = $1
		WHERE id = $2 AND status = 'active'`, at, assignmentID)
	if err != nil {
		return fmt.Errorf("pause drip assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("assignment is not active")
	}

	return nil
}

// Resume reactivates a paused assignment. Due backlog goes out on the next
// tick; schedule times are not shifted.
func (r *Repo) Resume(ctx context.Context, assignmentID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE drip_assignments
		SET status = 'active', paused_at = NULL
		WHERE id = $1 AND status = 'paused'`, assignmentID)
	if err != nil {
		return fmt.Errorf("resume drip assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("assignment is not paused")
	}

	return nil
}

// Stop terminates an assignment and cancels all of its remaining
// non-terminal rows in the same transaction. Irreversible.
func (r *Repo) Stop(ctx context.Context, assignmentID uuid.UUID, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin stop: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE drip_assignments
		SET status = 'stopped', stopped_at = $1
		WHERE id = $2 AND status IN ('active', 'paused')`, at, assignmentID)
	if err != nil {
		return fmt.Errorf("stop drip assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("assignment is already terminal")
	}

	_, err = tx.Exec(ctx, `
		UPDATE scheduled_messages
		SET status = 'cancelled'
		WHERE assignment_id = $1 AND status IN ('pending', 'sending')`, assignmentID)
	if err != nil {
		return fmt.Errorf("cancel scheduled messages: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit stop: %w", err)
	}

	return nil
}

// ClaimDue flips due pending rows of active assignments to sending and
// returns them joined with the lead fields needed for rendering. The
// single UPDATE makes the claim safe against overlapping ticks.
func (r *Repo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.DueMessage, error) {
	query := `
		WITH claimed AS (
			UPDATE scheduled_messages sm
			SET status = 'sending'
			WHERE sm.id IN (
				SELECT sm2.id
				FROM scheduled_messages sm2
				JOIN drip_assignments da ON da.id = sm2.assignment_id
				WHERE sm2.status = 'pending'
				  AND sm2.scheduled_at <= $1
				  AND da.status = 'active'
				ORDER BY sm2.scheduled_at ASC
				LIMIT $2
				FOR UPDATE OF sm2 SKIP LOCKED
			)
			RETURNING sm.id, sm.assignment_id, sm.lead_id, sm.step_sort_order,
				sm.body_template, sm.scheduled_at, sm.status, sm.attempts,
				sm.last_error, sm.delivery_id, sm.sent_at
		)
		SELECT c.id, c.assignment_id, c.lead_id, c.step_sort_order, c.body_template,
			c.scheduled_at, c.status, c.attempts, c.last_error, c.delivery_id, c.sent_at,
			l.phone, l.name, l.company, l.designation
		FROM claimed c
		JOIN leads l ON l.id = c.lead_id`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due scheduled messages: %w", err)
	}
	defer rows.Close()

	var due []domain.DueMessage
	for rows.Next() {
		var d domain.DueMessage
		err := rows.Scan(
			&d.ID, &d.AssignmentID, &d.LeadID, &d.StepSortOrder, &d.BodyTemplate,
			&d.ScheduledAt, &d.Status, &d.Attempts, &d.LastError, &d.DeliveryID, &d.SentAt,
			&d.LeadPhone, &d.LeadName, &d.LeadCompany, &d.LeadDesignation,
		)
		if err != nil {
			return nil, fmt.Errorf("scan due message: %w", err)
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due messages: %w", err)
	}

	return due, nil
}

// MarkSent finalizes a claimed row with its gateway delivery ID.
func (r *Repo) MarkSent(ctx context.Context, id uuid.UUID, deliveryID string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_messages
		SET status = 'sent', delivery_id = $1, sent_at = $2, last_error = NULL
		WHERE id = $3 AND status = 'sending'`, deliveryID, at, id)
	if err != nil {
		return fmt.Errorf("mark scheduled message sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("scheduled message is not in flight")
	}

	return nil
}

// ReturnForRetry puts a claimed row back in the queue after a transient
// delivery failure.
func (r *Repo) ReturnForRetry(ctx context.Context, id uuid.UUID, lastError string, nextAttemptAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_messages
		SET status = 'pending', attempts = attempts + 1, last_error = $1, scheduled_at = $2
		WHERE id = $3 AND status = 'sending'`, lastError, nextAttemptAt, id)
	if err != nil {
		return fmt.Errorf("return scheduled message for retry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("scheduled message is not in flight")
	}

	return nil
}

// MarkFailed records a permanent delivery failure after the attempt cap.
func (r *Repo) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_messages
		SET status = 'failed', attempts = attempts + 1, last_error = $1
		WHERE id = $2 AND status = 'sending'`, lastError, id)
	if err != nil {
		return fmt.Errorf("mark scheduled message failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("scheduled message is not in flight")
	}

	return nil
}

// ListScheduledByLead retrieves a lead's full scheduled timeline.
func (r *Repo) ListScheduledByLead(ctx context.Context, leadID uuid.UUID) ([]domain.ScheduledMessage, error) {
	query := `
		SELECT id, assignment_id, lead_id, step_sort_order, body_template,
			scheduled_at, status, attempts, last_error, delivery_id, sent_at
		FROM scheduled_messages
		WHERE lead_id = $1
		ORDER BY scheduled_at ASC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ScheduledMessage
	for rows.Next() {
		var m domain.ScheduledMessage
		err := rows.Scan(
			&m.ID, &m.AssignmentID, &m.LeadID, &m.StepSortOrder, &m.BodyTemplate,
			&m.ScheduledAt, &m.Status, &m.Attempts, &m.LastError, &m.DeliveryID, &m.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scheduled message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled messages: %w", err)
	}

	return messages, nil
}

// CompleteFinished closes out active assignments whose every row reached a
// terminal status.
func (r *Repo) CompleteFinished(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE drip_assignments da
		SET status = 'completed'
		WHERE da.status = 'active'
		  AND NOT EXISTS (
			SELECT 1 FROM scheduled_messages sm
			WHERE sm.assignment_id = da.id
			  AND sm.status IN ('pending', 'sending')
		  )`)
	if err != nil {
		return 0, fmt.Errorf("complete finished assignments: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func (r *Repo) listSteps(ctx context.Context, dripID uuid.UUID) ([]domain.Step, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, drip_id, template, day_offset, time_of_day, sort_order
		FROM drip_steps
		WHERE drip_id = $1
		ORDER BY sort_order ASC`, dripID)
	if err != nil {
		return nil, fmt.Errorf("list drip steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.Step
	for rows.Next() {
		var s domain.Step
		if err := rows.Scan(&s.ID, &s.DripID, &s.Template, &s.DayOffset, &s.TimeOfDay, &s.SortOrder); err != nil {
			return nil, fmt.Errorf("scan drip step: %w", err)
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drip steps: %w", err)
	}

	return steps, nil
}
