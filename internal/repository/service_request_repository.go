package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/service-desk/internal/domain"
)

const uniqueViolation = "23505"

// ServiceRequestFilter captures list parameters. OrganizationID is mandatory.
type ServiceRequestFilter struct {
	OrganizationID string
	States         []domain.ServiceRequestState
	Priorities     []domain.ServiceRequestPriority
	AssigneeID     *string
	SearchTerm     *string
	Limit          int
	Offset         int
}

// TransitionWrite is a conditional state change. It succeeds only while the
// stored record still has ExpectedState and ExpectedVersion.
type TransitionWrite struct {
	OrganizationID  string
	ID              string
	ExpectedState   domain.ServiceRequestState
	ExpectedVersion int64
	Patch           domain.Patch
	Entry           domain.StateTransition
}

// ServiceRequestRepository persists service requests. Every method is scoped by organization.
type ServiceRequestRepository interface {
	Create(ctx context.Context, request *domain.ServiceRequest) error
	Find(ctx context.Context, organizationID, id string) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error)
	History(ctx context.Context, organizationID, id string) ([]domain.StateTransition, error)
	ApplyTransition(ctx context.Context, write TransitionWrite) (*domain.ServiceRequest, error)
	UpdateVisitDetails(ctx context.Context, organizationID, id, visitID string, details domain.VisitDetails, at time.Time) (*domain.ServiceRequest, error)
	SoftDelete(ctx context.Context, organizationID, id string, at time.Time) error
	TicketNumberExists(ctx context.Context, organizationID, code string) (bool, error)
}

type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type serviceRequestRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRequestRepository instantiates the Postgres repository.
func NewServiceRequestRepository(pool *pgxpool.Pool) ServiceRequestRepository {
	return &serviceRequestRepository{pool: pool}
}

const serviceRequestColumns = `
        sr.id, sr.ticket_number, sr.organization_id, sr.title, sr.description, sr.priority,
        sr.customer, sr.device, sr.state, sr.visits, sr.parts_required, sr.approval,
        sr.assigned_staff_id, sr.assigned_staff_name, sr.assigned_at, sr.assigned_by, sr.accepted_at,
        sr.decline_reason, sr.declined_at, sr.declined_by,
        sr.resolution_notes, sr.resolution_code, sr.resolved_at, sr.resolved_by,
        sr.cancellation_reason, sr.cancelled_at, sr.cancelled_by,
        sr.created_by, sr.is_deleted, sr.deleted_at, sr.version, sr.created_at, sr.updated_at,
        COALESCE((
            SELECT json_agg(json_build_object(
                'id', t.id, 'from_state', t.from_state, 'to_state', t.to_state,
                'actor_id', t.actor_id, 'actor_name', t.actor_name, 'actor_role', t.actor_role,
                'reason', t.reason, 'metadata', t.metadata, 'occurred_at', t.occurred_at
            ) ORDER BY t.seq)
            FROM service_request_transitions t WHERE t.service_request_id = sr.id
        ), '[]'::json)`

func (r *serviceRequestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (
            id, ticket_number, organization_id, title, description, priority, customer, device,
            state, visits, parts_required, approval, created_by, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

	customer, err := json.Marshal(request.Customer)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}
	var device []byte
	if request.Device != nil {
		if device, err = json.Marshal(request.Device); err != nil {
			return fmt.Errorf("encode device: %w", err)
		}
	}
	doc, err := encodeDocuments(request)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		request.ID,
		request.TicketNumber,
		request.OrganizationID,
		request.Title,
		request.Description,
		request.Priority,
		customer,
		device,
		request.State,
		doc.visits,
		doc.parts,
		doc.approval,
		request.CreatedBy,
		request.Version,
		request.CreatedAt,
		request.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateTicketNumber
	}
	return err
}

func (r *serviceRequestRepository) Find(ctx context.Context, organizationID, id string) (*domain.ServiceRequest, error) {
	return findServiceRequest(ctx, r.pool, organizationID, id)
}

func (r *serviceRequestRepository) History(ctx context.Context, organizationID, id string) ([]domain.StateTransition, error) {
	request, err := r.Find(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	return request.StateHistory, nil
}

func (r *serviceRequestRepository) List(ctx context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	clauses := []string{"sr.organization_id=$1", "NOT sr.is_deleted"}
	args := []any{filter.OrganizationID}

	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("sr.state IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("sr.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("sr.assigned_staff_id=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(sr.title) LIKE %s OR LOWER(sr.description) LIKE %s OR LOWER(sr.ticket_number) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM service_requests sr WHERE %s ORDER BY sr.updated_at DESC, sr.id LIMIT %d OFFSET %d`,
		serviceRequestColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceRequest
	for rows.Next() {
		request, err := scanServiceRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *request)
	}
	return result, rows.Err()
}

func (r *serviceRequestRepository) ApplyTransition(ctx context.Context, write TransitionWrite) (*domain.ServiceRequest, error) {
	var updated *domain.ServiceRequest
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		request, err := lockServiceRequest(ctx, tx, write.OrganizationID, write.ID)
		if err != nil {
			return err
		}
		if request.State != write.ExpectedState || request.Version != write.ExpectedVersion {
			return ErrStateConflict
		}
		if err := write.Patch.Apply(request, write.Entry); err != nil {
			return err
		}
		if err := saveServiceRequest(ctx, tx, request, write.ExpectedVersion); err != nil {
			return err
		}
		if err := insertTransition(ctx, tx, request, write.Entry); err != nil {
			return err
		}
		updated = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *serviceRequestRepository) UpdateVisitDetails(ctx context.Context, organizationID, id, visitID string, details domain.VisitDetails, at time.Time) (*domain.ServiceRequest, error) {
	var updated *domain.ServiceRequest
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		request, err := lockServiceRequest(ctx, tx, organizationID, id)
		if err != nil {
			return err
		}
		visit := request.Visit(visitID)
		if visit == nil {
			return domain.ErrVisitNotFound
		}
		if err := visit.ApplyDetails(details); err != nil {
			return err
		}
		expected := request.Version
		request.Version++
		request.UpdatedAt = at
		if err := saveServiceRequest(ctx, tx, request, expected); err != nil {
			return err
		}
		updated = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *serviceRequestRepository) SoftDelete(ctx context.Context, organizationID, id string, at time.Time) error {
	const query = `
        UPDATE service_requests SET is_deleted=TRUE, deleted_at=$3, updated_at=$3, version=version+1
        WHERE organization_id=$1 AND id=$2 AND NOT is_deleted`
	cmd, err := r.pool.Exec(ctx, query, organizationID, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *serviceRequestRepository) TicketNumberExists(ctx context.Context, organizationID, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM service_requests WHERE organization_id=$1 AND ticket_number=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, organizationID, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func findServiceRequest(ctx context.Context, q queryer, organizationID, id string) (*domain.ServiceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_requests sr
        WHERE sr.organization_id=$1 AND sr.id=$2 AND NOT sr.is_deleted`, serviceRequestColumns)
	request, err := scanServiceRequest(q.QueryRow(ctx, query, organizationID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return request, err
}

// lockServiceRequest takes the row lock before loading, so the loaded version
// cannot move until the transaction ends.
func lockServiceRequest(ctx context.Context, tx pgx.Tx, organizationID, id string) (*domain.ServiceRequest, error) {
	const lock = `
        SELECT id FROM service_requests
        WHERE organization_id=$1 AND id=$2 AND NOT is_deleted
        FOR UPDATE`
	var lockedID string
	if err := tx.QueryRow(ctx, lock, organizationID, id).Scan(&lockedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return findServiceRequest(ctx, tx, organizationID, id)
}

func saveServiceRequest(ctx context.Context, q queryer, request *domain.ServiceRequest, expectedVersion int64) error {
	const query = `
        UPDATE service_requests SET
            state=$1, visits=$2, parts_required=$3, approval=$4,
            assigned_staff_id=$5, assigned_staff_name=$6, assigned_at=$7, assigned_by=$8, accepted_at=$9,
            decline_reason=$10, declined_at=$11, declined_by=$12,
            resolution_notes=$13, resolution_code=$14, resolved_at=$15, resolved_by=$16,
            cancellation_reason=$17, cancelled_at=$18, cancelled_by=$19,
            version=$20, updated_at=$21
        WHERE organization_id=$22 AND id=$23 AND version=$24`

	doc, err := encodeDocuments(request)
	if err != nil {
		return err
	}
	cmd, err := q.Exec(ctx, query,
		request.State,
		doc.visits,
		doc.parts,
		doc.approval,
		request.AssignedStaffID,
		request.AssignedStaffName,
		request.AssignedAt,
		request.AssignedBy,
		request.AcceptedAt,
		request.DeclineReason,
		request.DeclinedAt,
		request.DeclinedBy,
		request.ResolutionNotes,
		request.ResolutionCode,
		request.ResolvedAt,
		request.ResolvedBy,
		request.CancellationReason,
		request.CancelledAt,
		request.CancelledBy,
		request.Version,
		request.UpdatedAt,
		request.OrganizationID,
		request.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return nil
}

func insertTransition(ctx context.Context, q queryer, request *domain.ServiceRequest, entry domain.StateTransition) error {
	const query = `
        INSERT INTO service_request_transitions (
            id, service_request_id, organization_id, from_state, to_state,
            actor_id, actor_name, actor_role, reason, metadata, occurred_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("encode transition metadata: %w", err)
	}
	_, err = q.Exec(ctx, query,
		entry.ID,
		request.ID,
		request.OrganizationID,
		entry.FromState,
		entry.ToState,
		entry.ActorID,
		entry.ActorName,
		entry.ActorRole,
		entry.Reason,
		metadata,
		entry.OccurredAt,
	)
	return err
}

type documents struct {
	visits   []byte
	parts    []byte
	approval []byte
}

func encodeDocuments(request *domain.ServiceRequest) (documents, error) {
	var (
		doc documents
		err error
	)
	visits := request.Visits
	if visits == nil {
		visits = []domain.Visit{}
	}
	if doc.visits, err = json.Marshal(visits); err != nil {
		return doc, fmt.Errorf("encode visits: %w", err)
	}
	parts := request.PartsRequired
	if parts == nil {
		parts = []domain.PartRequirement{}
	}
	if doc.parts, err = json.Marshal(parts); err != nil {
		return doc, fmt.Errorf("encode parts: %w", err)
	}
	if doc.approval, err = json.Marshal(request.Approval); err != nil {
		return doc, fmt.Errorf("encode approval: %w", err)
	}
	return doc, nil
}

func scanServiceRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	var customer, device, visits, parts, approval, history []byte
	if err := row.Scan(
		&request.ID,
		&request.TicketNumber,
		&request.OrganizationID,
		&request.Title,
		&request.Description,
		&request.Priority,
		&customer,
		&device,
		&request.State,
		&visits,
		&parts,
		&approval,
		&request.AssignedStaffID,
		&request.AssignedStaffName,
		&request.AssignedAt,
		&request.AssignedBy,
		&request.AcceptedAt,
		&request.DeclineReason,
		&request.DeclinedAt,
		&request.DeclinedBy,
		&request.ResolutionNotes,
		&request.ResolutionCode,
		&request.ResolvedAt,
		&request.ResolvedBy,
		&request.CancellationReason,
		&request.CancelledAt,
		&request.CancelledBy,
		&request.CreatedBy,
		&request.IsDeleted,
		&request.DeletedAt,
		&request.Version,
		&request.CreatedAt,
		&request.UpdatedAt,
		&history,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(customer, &request.Customer); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}
	if len(device) > 0 {
		request.Device = &domain.DeviceSnapshot{}
		if err := json.Unmarshal(device, request.Device); err != nil {
			return nil, fmt.Errorf("decode device: %w", err)
		}
	}
	if err := json.Unmarshal(visits, &request.Visits); err != nil {
		return nil, fmt.Errorf("decode visits: %w", err)
	}
	if err := json.Unmarshal(parts, &request.PartsRequired); err != nil {
		return nil, fmt.Errorf("decode parts: %w", err)
	}
	if err := json.Unmarshal(approval, &request.Approval); err != nil {
		return nil, fmt.Errorf("decode approval: %w", err)
	}
	if err := json.Unmarshal(history, &request.StateHistory); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return &request, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
