package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/policy"
)

// ErrVersionConflict reports that a ticket row changed between read and write.
var ErrVersionConflict = errors.New("ticket version conflict")

// SortKey enumerates the allowed search sort columns.
type SortKey string

const (
	SortByCreatedAt SortKey = "CreatedAt"
	SortByUpdatedAt SortKey = "UpdatedAt"
	SortByPriority  SortKey = "Priority"
	SortByStatus    SortKey = "Status"
)

// ParseSortKey maps loose external input onto a SortKey, defaulting to
// CreatedAt for anything unrecognized.
func ParseSortKey(raw string) SortKey {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "updatedat":
		return SortByUpdatedAt
	case "priority":
		return SortByPriority
	case "status":
		return SortByStatus
	default:
		return SortByCreatedAt
	}
}

// TicketFilter captures search predicates, the role scope, sorting and paging.
type TicketFilter struct {
	Title            *string
	Description      *string
	Priority         *domain.TicketPriority
	Type             *domain.TicketType
	Status           *domain.TicketStatus
	CreatedByUserID  *string
	AssignedToUserID *string
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
	UpdatedFrom      *time.Time
	UpdatedTo        *time.Time

	Scope policy.TicketScope

	SortBy     SortKey
	SortDesc   bool
	PageNumber int
	PageSize   int
}

// KPIFilter selects tickets for aggregation without pagination.
type KPIFilter struct {
	AssignedToUserID *string
	Status           *domain.TicketStatus
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
	UpdatedFrom      *time.Time
	UpdatedTo        *time.Time
	ResolvedFrom     *time.Time
	ResolvedTo       *time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes all mutable columns and bumps version; expectedVersion
	// must match the stored row or ErrVersionConflict is returned.
	Update(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	// Search returns one page of matches plus the total count before paging.
	Search(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	ListForKPI(ctx context.Context, filter KPIFilter) ([]domain.Ticket, error)
	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status domain.TicketStatus) (int, error)
	CountByPriority(ctx context.Context, priority domain.TicketPriority) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, priority, type, status,
        created_by_user_id, assigned_to_user_id, comment, resolution_notes,
        created_at, updated_at, resolved_at, resolution_time_seconds, version`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, priority, type, status,
            created_by_user_id, assigned_to_user_id, comment, resolution_notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at, version`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Type,
		ticket.Status,
		ticket.CreatedByUserID,
		ticket.AssignedToUserID,
		ticket.Comment,
		ticket.ResolutionNotes,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt, &ticket.Version)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, type=$4, status=$5,
            assigned_to_user_id=$6, comment=$7, resolution_notes=$8,
            resolved_at=$9, resolution_time_seconds=$10,
            updated_at=NOW(), version=version+1
        WHERE id=$11 AND version=$12
        RETURNING updated_at, version`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Type,
		ticket.Status,
		ticket.AssignedToUserID,
		ticket.Comment,
		ticket.ResolutionNotes,
		ticket.ResolvedAt,
		resolutionSeconds(ticket.ResolutionTime),
		ticket.ID,
		expectedVersion,
	).Scan(&ticket.UpdatedAt, &ticket.Version)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	// Zero rows means the ticket is gone or the version moved on.
	var current int64
	checkErr := r.pool.QueryRow(ctx, `SELECT version FROM tickets WHERE id=$1`, ticket.ID).Scan(&current)
	if checkErr != nil {
		return checkErr
	}
	return ErrVersionConflict
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicketRow(row)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Search(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	addClause := func(condition string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(condition, len(args)))
	}

	if filter.Title != nil && strings.TrimSpace(*filter.Title) != "" {
		addClause("LOWER(title) LIKE $%d", "%"+strings.ToLower(strings.TrimSpace(*filter.Title))+"%")
	}
	if filter.Description != nil && strings.TrimSpace(*filter.Description) != "" {
		addClause("LOWER(description) LIKE $%d", "%"+strings.ToLower(strings.TrimSpace(*filter.Description))+"%")
	}
	if filter.Priority != nil {
		addClause("priority=$%d", *filter.Priority)
	}
	if filter.Type != nil {
		addClause("type=$%d", *filter.Type)
	}
	if filter.Status != nil {
		addClause("status=$%d", *filter.Status)
	}
	if filter.CreatedByUserID != nil {
		addClause("created_by_user_id=$%d", *filter.CreatedByUserID)
	}
	if filter.AssignedToUserID != nil {
		addClause("assigned_to_user_id=$%d", *filter.AssignedToUserID)
	}
	if filter.CreatedFrom != nil {
		addClause("created_at >= $%d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		addClause("created_at <= $%d", *filter.CreatedTo)
	}
	if filter.UpdatedFrom != nil {
		addClause("updated_at >= $%d", *filter.UpdatedFrom)
	}
	if filter.UpdatedTo != nil {
		addClause("updated_at <= $%d", *filter.UpdatedTo)
	}

	// Role scope is part of the SQL filter so totals stay correct.
	if filter.Scope.CreatedByUserID != nil {
		addClause("created_by_user_id=$%d", *filter.Scope.CreatedByUserID)
	}
	if filter.Scope.VisibleToRepID != nil {
		addClause("(assigned_to_user_id=$%d OR assigned_to_user_id IS NULL)", *filter.Scope.VisibleToRepID)
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageNumber := filter.PageNumber
	if pageNumber < 1 {
		pageNumber = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		ticketColumns, where, orderClause(filter.SortBy, filter.SortDesc),
		pageSize, (pageNumber-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) ListForKPI(ctx context.Context, filter KPIFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	addClause := func(condition string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(condition, len(args)))
	}

	if filter.AssignedToUserID != nil {
		addClause("assigned_to_user_id=$%d", *filter.AssignedToUserID)
	}
	if filter.Status != nil {
		addClause("status=$%d", *filter.Status)
	}
	if filter.CreatedFrom != nil {
		addClause("created_at >= $%d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		addClause("created_at <= $%d", *filter.CreatedTo)
	}
	if filter.UpdatedFrom != nil {
		addClause("updated_at >= $%d", *filter.UpdatedFrom)
	}
	if filter.UpdatedTo != nil {
		addClause("updated_at <= $%d", *filter.UpdatedTo)
	}
	if filter.ResolvedFrom != nil {
		addClause("resolved_at >= $%d", *filter.ResolvedFrom)
	}
	if filter.ResolvedTo != nil {
		addClause("resolved_at <= $%d", *filter.ResolvedTo)
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at`,
		ticketColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count)
	return count, err
}

func (r *ticketRepository) CountByStatus(ctx context.Context, status domain.TicketStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE status=$1`, status).Scan(&count)
	return count, err
}

func (r *ticketRepository) CountByPriority(ctx context.Context, priority domain.TicketPriority) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE priority=$1`, priority).Scan(&count)
	return count, err
}

func (r *ticketRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE created_at >= $1`, since).Scan(&count)
	return count, err
}

func orderClause(key SortKey, desc bool) string {
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	switch key {
	case SortByUpdatedAt:
		return "updated_at " + direction
	case SortByPriority:
		return fmt.Sprintf(
			"CASE priority WHEN 'Low' THEN 1 WHEN 'Medium' THEN 2 WHEN 'High' THEN 3 ELSE 0 END %s", direction)
	case SortByStatus:
		return "status " + direction
	default:
		return "created_at " + direction
	}
}

func resolutionSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	secs := int64(d.Seconds())
	return &secs
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketRow(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket  domain.Ticket
		resSecs *int64
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Type,
		&ticket.Status,
		&ticket.CreatedByUserID,
		&ticket.AssignedToUserID,
		&ticket.Comment,
		&ticket.ResolutionNotes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&resSecs,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	if resSecs != nil {
		d := time.Duration(*resSecs) * time.Second
		ticket.ResolutionTime = &d
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
