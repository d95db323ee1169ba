package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter narrows a ticket listing.
type TicketFilter struct {
	CompanyID  *string
	CreatedBy  *string
	AssignedTo *string
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
}

// TicketCountFilter narrows a ticket count for statistics.
type TicketCountFilter struct {
	Status       *domain.TicketStatus
	CreatedSince *time.Time
}

// TicketMutation edits a locked ticket and returns the history to record
// alongside the update.
type TicketMutation func(ticket *domain.Ticket) ([]domain.TicketHistory, error)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	CountByNumberPrefix(ctx context.Context, prefix string) (int, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Get(ctx context.Context, scope access.Scope, id string) (*domain.Ticket, error)
	GetView(ctx context.Context, scope access.Scope, id string) (*domain.TicketView, error)
	List(ctx context.Context, scope access.Scope, filter TicketFilter, page Page) (PageResult[domain.TicketView], error)
	Mutate(ctx context.Context, scope access.Scope, id string, mutate TicketMutation) (*domain.Ticket, error)
	CountByCompany(ctx context.Context, companyID string, filter TicketCountFilter) (int, error)
	CloseResolvedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.ticket_number, t.company_id, t.created_by_user_id, t.assigned_to_user_id,
               t.title, t.description, t.ticket_type_id, t.category_id, t.module_id,
               t.status, t.priority, t.created_at, t.updated_at`

const ticketViewSelect = `
        SELECT ` + ticketColumns + `,
               c.name, cu.first_name || ' ' || cu.last_name,
               CASE WHEN au.id IS NULL THEN NULL ELSE au.first_name || ' ' || au.last_name END,
               tt.name, tc.name, tm.name
        FROM tickets t
        JOIN companies c ON c.id = t.company_id
        JOIN users cu ON cu.id = t.created_by_user_id
        LEFT JOIN users au ON au.id = t.assigned_to_user_id
        LEFT JOIN ticket_types tt ON tt.id = t.ticket_type_id
        LEFT JOIN ticket_categories tc ON tc.id = t.category_id
        LEFT JOIN ticket_modules tm ON tm.id = t.module_id`

func (r *ticketRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE ticket_number LIKE $1`
	var count int
	if err := r.pool.QueryRow(ctx, query, prefix+"%").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts the ticket. A collision on the ticket number yields
// ErrTicketNumberTaken so the caller can recompute and retry.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, company_id, created_by_user_id, assigned_to_user_id, title, description,
            ticket_type_id, category_id, module_id, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.CompanyID,
		ticket.CreatedByUserID,
		ticket.AssignedToUserID,
		ticket.Title,
		ticket.Description,
		ticket.TicketTypeID,
		ticket.CategoryID,
		ticket.ModuleID,
		ticket.Status,
		ticket.Priority,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if IsUniqueViolation(err, ConstraintTicketNumber) {
		return ErrTicketNumberTaken
	}
	return err
}

func (r *ticketRepository) Get(ctx context.Context, scope access.Scope, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if !scope.AllowsID(ticket.CompanyID) {
		return nil, pgx.ErrNoRows
	}
	return ticket, nil
}

func (r *ticketRepository) GetView(ctx context.Context, scope access.Scope, id string) (*domain.TicketView, error) {
	conds := newConditions()
	conds.add("t.id=$%d", id)
	conds.scope(scope, "t.company_id")
	query := ticketViewSelect + ` WHERE ` + conds.where()

	rows, err := r.pool.Query(ctx, query, conds.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	views, err := scanTicketViews(rows)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &views[0], nil
}

func (r *ticketRepository) List(ctx context.Context, scope access.Scope, filter TicketFilter, page Page) (PageResult[domain.TicketView], error) {
	result := PageResult[domain.TicketView]{Page: page}

	conds := newConditions()
	conds.scope(scope, "t.company_id")
	if filter.CompanyID != nil {
		conds.add("t.company_id=$%d", *filter.CompanyID)
	}
	if filter.CreatedBy != nil {
		conds.add("t.created_by_user_id=$%d", *filter.CreatedBy)
	}
	if filter.AssignedTo != nil {
		conds.add("t.assigned_to_user_id=$%d", *filter.AssignedTo)
	}
	if filter.Status != nil {
		conds.add("t.status=$%d", *filter.Status)
	}
	if filter.Priority != nil {
		conds.add("t.priority=$%d", *filter.Priority)
	}

	countQuery := `SELECT COUNT(*) FROM tickets t WHERE ` + conds.where()
	if err := r.pool.QueryRow(ctx, countQuery, conds.args...).Scan(&result.TotalCount); err != nil {
		return result, err
	}

	limit, args := conds.limitOffset(page)
	query := ticketViewSelect + ` WHERE ` + conds.where() + ` ORDER BY t.created_at DESC, t.id` + limit
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	result.Items, err = scanTicketViews(rows)
	return result, err
}

// Mutate locks the ticket row, re-checks its tenant against scope, applies
// mutate and persists the outcome together with its history in one
// transaction.
func (r *ticketRepository) Mutate(ctx context.Context, scope access.Scope, id string, mutate TicketMutation) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id=$1 FOR UPDATE`
	ticket, err := scanTicket(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if !scope.AllowsID(ticket.CompanyID) {
		return nil, pgx.ErrNoRows
	}

	history, err := mutate(ticket)
	if err != nil {
		return nil, err
	}

	const update = `
        UPDATE tickets SET assigned_to_user_id=$1, status=$2, priority=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, update,
		ticket.AssignedToUserID,
		ticket.Status,
		ticket.Priority,
		ticket.ID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return nil, err
	}

	for i := range history {
		history[i].TicketID = ticket.ID
		if err := insertHistory(ctx, tx, &history[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) CountByCompany(ctx context.Context, companyID string, filter TicketCountFilter) (int, error) {
	conds := newConditions()
	conds.add("company_id=$%d", companyID)
	if filter.Status != nil {
		conds.add("status=$%d", *filter.Status)
	}
	if filter.CreatedSince != nil {
		conds.add("created_at >= $%d", *filter.CreatedSince)
	}
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+conds.where(), conds.args...).Scan(&count)
	return count, err
}

// CloseResolvedBefore closes every Resolved ticket not updated since cutoff.
func (r *ticketRepository) CloseResolvedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	query := `
        UPDATE tickets t SET status=$1, updated_at=NOW()
        WHERE t.status=$2 AND t.updated_at < $3
        RETURNING ` + ticketColumns
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusClosed, domain.TicketStatusResolved, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.CompanyID,
		&ticket.CreatedByUserID,
		&ticket.AssignedToUserID,
		&ticket.Title,
		&ticket.Description,
		&ticket.TicketTypeID,
		&ticket.CategoryID,
		&ticket.ModuleID,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTicketViews(rows pgx.Rows) ([]domain.TicketView, error) {
	var result []domain.TicketView
	for rows.Next() {
		var view domain.TicketView
		t := &view.Ticket
		if err := rows.Scan(
			&t.ID,
			&t.TicketNumber,
			&t.CompanyID,
			&t.CreatedByUserID,
			&t.AssignedToUserID,
			&t.Title,
			&t.Description,
			&t.TicketTypeID,
			&t.CategoryID,
			&t.ModuleID,
			&t.Status,
			&t.Priority,
			&t.CreatedAt,
			&t.UpdatedAt,
			&view.CompanyName,
			&view.CreatedByName,
			&view.AssignedToName,
			&view.TicketTypeName,
			&view.CategoryName,
			&view.ModuleName,
		); err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, rows.Err()
}
