package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// UserFilter narrows an account listing.
type UserFilter struct {
	CompanyID       *string
	IncludeInactive bool
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.Account) error
	Update(ctx context.Context, user *domain.Account) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Deactivate(ctx context.Context, id string) error
	GetByID(ctx context.Context, scope access.Scope, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, scope access.Scope, filter UserFilter, page Page) (PageResult[domain.AccountSummary], error)
	ListActiveByCompanyAndRoles(ctx context.Context, companyID string, roles []domain.Role) ([]domain.Account, error)
	CountByCompany(ctx context.Context, companyID string) (int, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `u.id, u.first_name, u.last_name, u.email, u.phone, u.password_hash, u.company_id,
               u.roles, u.is_active, u.created_at, u.updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.Account) error {
	const query = `
        INSERT INTO users (first_name, last_name, email, phone, password_hash, company_id, roles, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.CompanyID,
		roleNames(user.Roles),
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.Account) error {
	const query = `
        UPDATE users SET first_name=$1, last_name=$2, email=$3, phone=$4, company_id=$5, roles=$6,
            is_active=$7, updated_at=NOW()
        WHERE id=$8`

	cmd, err := r.pool.Exec(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.CompanyID,
		roleNames(user.Roles),
		user.IsActive,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, scope access.Scope, id string) (*domain.Account, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id=$1`
	user, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if !scope.Allows(user.CompanyID) {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE LOWER(u.email)=LOWER($1)`
	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, scope access.Scope, filter UserFilter, page Page) (PageResult[domain.AccountSummary], error) {
	result := PageResult[domain.AccountSummary]{Page: page}

	conds := newConditions()
	conds.scope(scope, "u.company_id")
	if filter.CompanyID != nil {
		conds.add("u.company_id=$%d", *filter.CompanyID)
	}
	if !filter.IncludeInactive {
		conds.raw("u.is_active")
	}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u WHERE `+conds.where(), conds.args...).Scan(&result.TotalCount); err != nil {
		return result, err
	}

	limit, args := conds.limitOffset(page)
	query := `SELECT ` + userColumns + `, c.name
        FROM users u LEFT JOIN companies c ON c.id = u.company_id
        WHERE ` + conds.where() + ` ORDER BY u.first_name, u.last_name, u.id` + limit
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	for rows.Next() {
		var summary domain.AccountSummary
		var roles []string
		a := &summary.Account
		if err := rows.Scan(
			&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.PasswordHash, &a.CompanyID,
			&roles, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
			&summary.CompanyName,
		); err != nil {
			return result, err
		}
		a.Roles = parseRoles(roles)
		result.Items = append(result.Items, summary)
	}
	return result, rows.Err()
}

// ListActiveByCompanyAndRoles returns active accounts of a company holding any of roles.
func (r *userRepository) ListActiveByCompanyAndRoles(ctx context.Context, companyID string, roles []domain.Role) ([]domain.Account, error) {
	query := `SELECT ` + userColumns + ` FROM users u
        WHERE u.company_id=$1 AND u.is_active AND u.roles && $2
        ORDER BY u.email`
	rows, err := r.pool.Query(ctx, query, companyID, roleNames(roles))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}
	return result, rows.Err()
}

func (r *userRepository) CountByCompany(ctx context.Context, companyID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE company_id=$1 AND is_active`, companyID).Scan(&count)
	return count, err
}

func (r *userRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE $1 = ANY(roles)`, string(role)).Scan(&count)
	return count, err
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	var roles []string
	if err := row.Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.Phone,
		&account.PasswordHash,
		&account.CompanyID,
		&roles,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	account.Roles = parseRoles(roles)
	return &account, nil
}

func roleNames(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, string(role))
	}
	return out
}

// parseRoles drops names that are not known roles.
func parseRoles(names []string) []domain.Role {
	out := make([]domain.Role, 0, len(names))
	for _, name := range names {
		if role, ok := domain.ParseRole(name); ok {
			out = append(out, role)
		}
	}
	return out
}
