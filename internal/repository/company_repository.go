package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// CompanyRepository persists tenants.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	Update(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, scope access.Scope, id string) (*domain.Company, error)
	List(ctx context.Context, scope access.Scope, includeInactive bool, page Page) (PageResult[domain.CompanySummary], error)
	AddCredits(ctx context.Context, id string, delta int) (int, error)
	Deactivate(ctx context.Context, id string) error
}

type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository returns a Postgres-backed implementation.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

const companyColumns = `c.id, c.name, c.database_name, c.address, c.phone, c.email, c.contact_person,
               c.ticket_credits, c.plan_type, c.monthly_ticket_limit, c.is_active, c.created_at, c.updated_at`

// Create inserts the company; a duplicate database name surfaces as a unique
// violation on ConstraintCompanyDatabaseName.
func (r *companyRepository) Create(ctx context.Context, company *domain.Company) error {
	const query = `
        INSERT INTO companies (name, database_name, address, phone, email, contact_person,
            ticket_credits, plan_type, monthly_ticket_limit, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		company.Name,
		company.DatabaseName,
		company.Address,
		company.Phone,
		company.Email,
		company.ContactPerson,
		company.TicketCredits,
		company.PlanType,
		company.MonthlyTicketLimit,
		company.IsActive,
	).Scan(&company.ID, &company.CreatedAt)
}

func (r *companyRepository) Update(ctx context.Context, company *domain.Company) error {
	const query = `
        UPDATE companies SET name=$1, address=$2, phone=$3, email=$4, contact_person=$5,
            ticket_credits=$6, plan_type=$7, monthly_ticket_limit=$8, is_active=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		company.Name,
		company.Address,
		company.Phone,
		company.Email,
		company.ContactPerson,
		company.TicketCredits,
		company.PlanType,
		company.MonthlyTicketLimit,
		company.IsActive,
		company.ID,
	).Scan(&company.UpdatedAt)
}

func (r *companyRepository) GetByID(ctx context.Context, scope access.Scope, id string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies c WHERE c.id=$1`
	company, err := scanCompany(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if !scope.AllowsID(company.ID) {
		return nil, pgx.ErrNoRows
	}
	return company, nil
}

func (r *companyRepository) List(ctx context.Context, scope access.Scope, includeInactive bool, page Page) (PageResult[domain.CompanySummary], error) {
	result := PageResult[domain.CompanySummary]{Page: page}

	conds := newConditions()
	conds.scope(scope, "c.id")
	if !includeInactive {
		conds.raw("c.is_active")
	}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies c WHERE `+conds.where(), conds.args...).Scan(&result.TotalCount); err != nil {
		return result, err
	}

	limit, args := conds.limitOffset(page)
	query := `SELECT ` + companyColumns + `,
               (SELECT COUNT(*) FROM users u WHERE u.company_id = c.id AND u.is_active),
               (SELECT COUNT(*) FROM tickets t WHERE t.company_id = c.id)
        FROM companies c
        WHERE ` + conds.where() + ` ORDER BY c.name ASC, c.id` + limit
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	for rows.Next() {
		var summary domain.CompanySummary
		c := &summary.Company
		if err := rows.Scan(
			&c.ID, &c.Name, &c.DatabaseName, &c.Address, &c.Phone, &c.Email, &c.ContactPerson,
			&c.TicketCredits, &c.PlanType, &c.MonthlyTicketLimit, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
			&summary.UserCount, &summary.TicketCount,
		); err != nil {
			return result, err
		}
		result.Items = append(result.Items, summary)
	}
	return result, rows.Err()
}

// AddCredits applies delta atomically and returns the new balance. A balance
// that would drop below zero violates ConstraintCompanyCredits.
func (r *companyRepository) AddCredits(ctx context.Context, id string, delta int) (int, error) {
	const query = `
        UPDATE companies SET ticket_credits = ticket_credits + $1, updated_at=NOW()
        WHERE id=$2
        RETURNING ticket_credits`
	var balance int
	if err := r.pool.QueryRow(ctx, query, delta, id).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *companyRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE companies SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var company domain.Company
	if err := row.Scan(
		&company.ID,
		&company.Name,
		&company.DatabaseName,
		&company.Address,
		&company.Phone,
		&company.Email,
		&company.ContactPerson,
		&company.TicketCredits,
		&company.PlanType,
		&company.MonthlyTicketLimit,
		&company.IsActive,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &company, nil
}
