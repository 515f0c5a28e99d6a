package repository

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

const leadNotFoundMessage = "lead not found"

const leadColumns = `id, name, company, phone, email, designation, address,
	conversation_state, segment, priority, assigned_employee_id, is_active,
	created_at, updated_at`

// Repo implements LeadsRepository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements LeadsRepository.
var _ LeadsRepository = (*Repo)(nil)

// GetByID retrieves a lead by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return domain.Lead{}, fmt.Errorf("get lead by id: %w", err)
	}

	return lead, nil
}

// GetByPhone retrieves a lead by its exact E.164 phone number.
func (r *Repo) GetByPhone(ctx context.Context, phone string) (domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE phone = $1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return domain.Lead{}, fmt.Errorf("get lead by phone: %w", err)
	}

	return lead, nil
}

// GetByPhoneSuffix retrieves a lead whose phone number ends with the given
// digits. Used as a fallback when gateway numbers arrive without a country
// prefix. Picks the most recent match when more than one lead qualifies.
func (r *Repo) GetByPhoneSuffix(ctx context.Context, suffix string) (domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE phone LIKE '%' || $1
		ORDER BY created_at DESC
		LIMIT 1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, suffix))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return domain.Lead{}, fmt.Errorf("get lead by phone suffix: %w", err)
	}

	return lead, nil
}

// GetLatestByEmployee retrieves the employee's most recently updated
// active lead.
func (r *Repo) GetLatestByEmployee(ctx context.Context, employeeID uuid.UUID) (domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE assigned_employee_id = $1 AND is_active = true
		ORDER BY updated_at DESC
		LIMIT 1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return domain.Lead{}, fmt.Errorf("get latest lead by employee: %w", err)
	}

	return lead, nil
}

// Create inserts a new lead row and returns the stored record.
func (r *Repo) Create(ctx context.Context, params CreateLeadParams) (domain.Lead, error) {
	query := `
		INSERT INTO leads (name, company, phone, email, designation, conversation_state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		params.Name, params.Company, params.Phone, params.Email,
		params.Designation, params.ConversationState,
	))
	if err != nil {
		return domain.Lead{}, fmt.Errorf("create lead: %w", err)
	}

	return lead, nil
}

// List retrieves active leads ordered by recency, with a total count for
// pagination.
func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM leads WHERE is_active = true`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

// UpdateConversationStateCAS performs a compare-and-set state write. The
// update only lands when the stored state still equals expected; a zero
// row count means another writer got there first and the caller must
// re-read and retry or give up.
func (r *Repo) UpdateConversationStateCAS(ctx context.Context, id uuid.UUID, expected, next domain.ConversationState) error {
	query := `
		UPDATE leads
		SET conversation_state = $1, updated_at = now()
		WHERE id = $2 AND conversation_state = $3`

	tag, err := r.pool.Exec(ctx, query, next, id, expected)
	if err != nil {
		return fmt.Errorf("update conversation state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("conversation state changed concurrently")
	}

	return nil
}

// fieldColumns whitelists the columns reachable through corrections so a
// field token can never be interpolated into SQL.
var fieldColumns = map[domain.CorrectionField]string{
	domain.FieldName:        "name",
	domain.FieldCompany:     "company",
	domain.FieldPhone:       "phone",
	domain.FieldEmail:       "email",
	domain.FieldDesignation: "designation",
	domain.FieldAddress:     "address",
}

// UpdateField overwrites a single correctable lead field.
func (r *Repo) UpdateField(ctx context.Context, id uuid.UUID, field domain.CorrectionField, value string) error {
	column, ok := fieldColumns[field]
	if !ok {
		return apperr.Validation(fmt.Sprintf("field %q is not correctable", field))
	}

	query := fmt.Sprintf(`UPDATE leads SET %s = $1, updated_at = now() WHERE id = $2`, column)

	tag, err := r.pool.Exec(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("update lead field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}

	return nil
}

// UpdateSegment writes the derived segment and outreach priority.
func (r *Repo) UpdateSegment(ctx context.Context, id uuid.UUID, segment, priority string) error {
	query := `UPDATE leads SET segment = $1, priority = $2, updated_at = now() WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, segment, priority, id)
	if err != nil {
		return fmt.Errorf("update lead segment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}

	return nil
}

// CreateMessage appends one chat turn to a lead's transcript.
func (r *Repo) CreateMessage(ctx context.Context, params CreateMessageParams) (domain.Message, error) {
	query := `
		INSERT INTO messages (lead_id, sender_kind, body, media_ref, delivery_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, lead_id, sender_kind, body, media_ref, delivery_id, created_at`

	var m domain.Message
	err := r.pool.QueryRow(ctx, query,
		params.LeadID, params.SenderKind, params.Body, params.MediaRef, params.DeliveryID,
	).Scan(&m.ID, &m.LeadID, &m.SenderKind, &m.Body, &m.MediaRef, &m.DeliveryID, &m.CreatedAt)
	if err != nil {
		return domain.Message{}, fmt.Errorf("create message: %w", err)
	}

	return m, nil
}

// ListMessages retrieves a lead's transcript in chronological order.
func (r *Repo) ListMessages(ctx context.Context, leadID uuid.UUID) ([]domain.Message, error) {
	query := `
		SELECT id, lead_id, sender_kind, body, media_ref, delivery_id, created_at
		FROM messages
		WHERE lead_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.LeadID, &m.SenderKind, &m.Body, &m.MediaRef, &m.DeliveryID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (domain.Lead, error) {
	var l domain.Lead
	err := row.Scan(
		&l.ID, &l.Name, &l.Company, &l.Phone, &l.Email, &l.Designation, &l.Address,
		&l.ConversationState, &l.Segment, &l.Priority, &l.AssignedEmployeeID, &l.IsActive,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func scanLeads(rows pgx.Rows) ([]domain.Lead, error) {
	var leads []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}
