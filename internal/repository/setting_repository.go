package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SettingFilter narrows a settings listing.
type SettingFilter struct {
	Category    *string
	VisibleOnly bool
}

// SettingRepository persists global system settings.
type SettingRepository interface {
	List(ctx context.Context, filter SettingFilter) ([]domain.SystemSetting, error)
	GetByKey(ctx context.Context, key string) (*domain.SystemSetting, error)
	Create(ctx context.Context, setting *domain.SystemSetting) error
	UpdateValue(ctx context.Context, key, value string) (*domain.SystemSetting, error)
	ResetDefaults(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
}

type settingRepository struct {
	pool *pgxpool.Pool
}

// NewSettingRepository returns a Postgres-backed implementation.
func NewSettingRepository(pool *pgxpool.Pool) SettingRepository {
	return &settingRepository{pool: pool}
}

const settingColumns = `id, setting_key, setting_value, data_type, display_name, description, category,
               is_system_setting, is_visible, default_value, validation_rules, created_at, updated_at`

func (r *settingRepository) List(ctx context.Context, filter SettingFilter) ([]domain.SystemSetting, error) {
	conds := newConditions()
	if filter.Category != nil {
		conds.add("category=$%d", *filter.Category)
	}
	if filter.VisibleOnly {
		conds.raw("is_visible")
	}
	query := `SELECT ` + settingColumns + ` FROM system_settings WHERE ` + conds.where() + ` ORDER BY category, setting_key`
	rows, err := r.pool.Query(ctx, query, conds.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SystemSetting
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *setting)
	}
	return result, rows.Err()
}

func (r *settingRepository) GetByKey(ctx context.Context, key string) (*domain.SystemSetting, error) {
	return scanSetting(r.pool.QueryRow(ctx, `SELECT `+settingColumns+` FROM system_settings WHERE setting_key=$1`, key))
}

// Create inserts a setting; a duplicate key violates ConstraintSettingKey.
func (r *settingRepository) Create(ctx context.Context, s *domain.SystemSetting) error {
	const query = `
        INSERT INTO system_settings (setting_key, setting_value, data_type, display_name, description, category,
            is_system_setting, is_visible, default_value, validation_rules)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		s.Key, s.Value, s.DataType, s.DisplayName, s.Description, s.Category,
		s.IsSystemSetting, s.IsVisible, s.DefaultValue, s.ValidationRules,
	).Scan(&s.ID, &s.CreatedAt)
}

// UpdateValue writes value unless the setting is protected. A protected or
// missing key returns pgx.ErrNoRows.
func (r *settingRepository) UpdateValue(ctx context.Context, key, value string) (*domain.SystemSetting, error) {
	query := `
        UPDATE system_settings SET setting_value=$1, updated_at=NOW()
        WHERE setting_key=$2 AND NOT is_system_setting
        RETURNING ` + settingColumns
	return scanSetting(r.pool.QueryRow(ctx, query, value, key))
}

// ResetDefaults restores every unprotected setting that has a default and
// returns the affected keys.
func (r *settingRepository) ResetDefaults(ctx context.Context) ([]string, error) {
	const query = `
        UPDATE system_settings SET setting_value=default_value, updated_at=NOW()
        WHERE default_value IS NOT NULL AND NOT is_system_setting
        RETURNING setting_key`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *settingRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM system_settings WHERE category IS NOT NULL ORDER BY category`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanSetting(row pgx.Row) (*domain.SystemSetting, error) {
	var s domain.SystemSetting
	if err := row.Scan(
		&s.ID, &s.Key, &s.Value, &s.DataType, &s.DisplayName, &s.Description, &s.Category,
		&s.IsSystemSetting, &s.IsVisible, &s.DefaultValue, &s.ValidationRules, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
