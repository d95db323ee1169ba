package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CatalogRepository persists the tenant-independent ticket taxonomy.
type CatalogRepository interface {
	ListTicketTypes(ctx context.Context, includeInactive bool, page Page) (PageResult[domain.TicketType], error)
	GetTicketType(ctx context.Context, id string) (*domain.TicketType, error)
	CreateTicketType(ctx context.Context, ticketType *domain.TicketType) error
	UpdateTicketType(ctx context.Context, ticketType *domain.TicketType) error

	ListCategories(ctx context.Context, page Page) (PageResult[domain.Category], error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error

	ListModules(ctx context.Context, categoryID string) ([]domain.Module, error)
	GetModule(ctx context.Context, id string) (*domain.Module, error)
	CreateModule(ctx context.Context, module *domain.Module) error

	ListFormFields(ctx context.Context, ticketTypeID string) ([]domain.FormField, error)
	GetFormField(ctx context.Context, id string) (*domain.FormField, error)
	CreateFormField(ctx context.Context, field *domain.FormField) error
	UpdateFormField(ctx context.Context, field *domain.FormField) error
	DeactivateFormField(ctx context.Context, id string) error
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a Postgres-backed implementation.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

const ticketTypeColumns = `id, name, description, icon, color, sort_order, is_active, created_at, updated_at`

func (r *catalogRepository) ListTicketTypes(ctx context.Context, includeInactive bool, page Page) (PageResult[domain.TicketType], error) {
	result := PageResult[domain.TicketType]{Page: page}
	conds := newConditions()
	if !includeInactive {
		conds.raw("is_active")
	}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_types WHERE `+conds.where(), conds.args...).Scan(&result.TotalCount); err != nil {
		return result, err
	}

	limit, args := conds.limitOffset(page)
	rows, err := r.pool.Query(ctx, `SELECT `+ticketTypeColumns+` FROM ticket_types WHERE `+conds.where()+` ORDER BY name ASC, id`+limit, args...)
	if err != nil {
		return result, err
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanTicketType(rows)
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, *item)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetTicketType(ctx context.Context, id string) (*domain.TicketType, error) {
	return scanTicketType(r.pool.QueryRow(ctx, `SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id=$1`, id))
}

func (r *catalogRepository) CreateTicketType(ctx context.Context, t *domain.TicketType) error {
	const query = `
        INSERT INTO ticket_types (name, description, icon, color, sort_order, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, t.Name, t.Description, t.Icon, t.Color, t.SortOrder, t.IsActive).
		Scan(&t.ID, &t.CreatedAt)
}

func (r *catalogRepository) UpdateTicketType(ctx context.Context, t *domain.TicketType) error {
	const query = `
        UPDATE ticket_types SET name=$1, description=$2, icon=$3, color=$4, sort_order=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, t.Name, t.Description, t.Icon, t.Color, t.SortOrder, t.IsActive, t.ID).
		Scan(&t.UpdatedAt)
}

func scanTicketType(row pgx.Row) (*domain.TicketType, error) {
	var t domain.TicketType
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Icon, &t.Color, &t.SortOrder, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

const categoryColumns = `id, name, description, icon, color, sort_order, is_active, created_at, updated_at`

func (r *catalogRepository) ListCategories(ctx context.Context, page Page) (PageResult[domain.Category], error) {
	result := PageResult[domain.Category]{Page: page}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_categories WHERE is_active`).Scan(&result.TotalCount); err != nil {
		return result, err
	}

	const query = `SELECT ` + categoryColumns + ` FROM ticket_categories WHERE is_active
        ORDER BY name ASC, id LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, page.Size, page.Offset())
	if err != nil {
		return result, err
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanCategory(rows)
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, *item)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM ticket_categories WHERE id=$1`, id))
}

func (r *catalogRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	const query = `
        INSERT INTO ticket_categories (name, description, icon, color, sort_order, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, c.Name, c.Description, c.Icon, c.Color, c.SortOrder, c.IsActive).
		Scan(&c.ID, &c.CreatedAt)
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Color, &c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const moduleColumns = `id, category_id, name, description, icon, color, sort_order, is_active, created_at, updated_at`

func (r *catalogRepository) ListModules(ctx context.Context, categoryID string) ([]domain.Module, error) {
	const query = `SELECT ` + moduleColumns + ` FROM ticket_modules
        WHERE category_id=$1 AND is_active ORDER BY name ASC, id`
	rows, err := r.pool.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Module
	for rows.Next() {
		item, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetModule(ctx context.Context, id string) (*domain.Module, error) {
	return scanModule(r.pool.QueryRow(ctx, `SELECT `+moduleColumns+` FROM ticket_modules WHERE id=$1`, id))
}

func (r *catalogRepository) CreateModule(ctx context.Context, m *domain.Module) error {
	const query = `
        INSERT INTO ticket_modules (category_id, name, description, icon, color, sort_order, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, m.CategoryID, m.Name, m.Description, m.Icon, m.Color, m.SortOrder, m.IsActive).
		Scan(&m.ID, &m.CreatedAt)
}

func scanModule(row pgx.Row) (*domain.Module, error) {
	var m domain.Module
	if err := row.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Icon, &m.Color, &m.SortOrder, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

const formFieldColumns = `id, ticket_type_id, field_name, display_name, field_type, default_value, placeholder_text,
               help_text, is_required, sort_order, min_length, max_length, validation_rules, options,
               is_active, created_at, updated_at`

// ListFormFields returns the active fields of a ticket type in form order.
func (r *catalogRepository) ListFormFields(ctx context.Context, ticketTypeID string) ([]domain.FormField, error) {
	const query = `SELECT ` + formFieldColumns + ` FROM form_fields
        WHERE ticket_type_id=$1 AND is_active ORDER BY sort_order ASC, display_name ASC`
	rows, err := r.pool.Query(ctx, query, ticketTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FormField
	for rows.Next() {
		item, err := scanFormField(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetFormField(ctx context.Context, id string) (*domain.FormField, error) {
	return scanFormField(r.pool.QueryRow(ctx, `SELECT `+formFieldColumns+` FROM form_fields WHERE id=$1`, id))
}

func (r *catalogRepository) CreateFormField(ctx context.Context, f *domain.FormField) error {
	const query = `
        INSERT INTO form_fields (ticket_type_id, field_name, display_name, field_type, default_value, placeholder_text,
            help_text, is_required, sort_order, min_length, max_length, validation_rules, options, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		f.TicketTypeID, f.FieldName, f.DisplayName, f.FieldType, f.DefaultValue, f.PlaceholderText,
		f.HelpText, f.IsRequired, f.SortOrder, f.MinLength, f.MaxLength, f.ValidationRules, f.Options, f.IsActive,
	).Scan(&f.ID, &f.CreatedAt)
}

func (r *catalogRepository) UpdateFormField(ctx context.Context, f *domain.FormField) error {
	const query = `
        UPDATE form_fields SET field_name=$1, display_name=$2, field_type=$3, default_value=$4, placeholder_text=$5,
            help_text=$6, is_required=$7, sort_order=$8, min_length=$9, max_length=$10, validation_rules=$11,
            options=$12, is_active=$13, updated_at=NOW()
        WHERE id=$14
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		f.FieldName, f.DisplayName, f.FieldType, f.DefaultValue, f.PlaceholderText,
		f.HelpText, f.IsRequired, f.SortOrder, f.MinLength, f.MaxLength, f.ValidationRules,
		f.Options, f.IsActive, f.ID,
	).Scan(&f.UpdatedAt)
}

func (r *catalogRepository) DeactivateFormField(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE form_fields SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanFormField(row pgx.Row) (*domain.FormField, error) {
	var f domain.FormField
	if err := row.Scan(
		&f.ID, &f.TicketTypeID, &f.FieldName, &f.DisplayName, &f.FieldType, &f.DefaultValue, &f.PlaceholderText,
		&f.HelpText, &f.IsRequired, &f.SortOrder, &f.MinLength, &f.MaxLength, &f.ValidationRules, &f.Options,
		&f.IsActive, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}
