package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk/internal/access"
)

// Postgres constraint names surfaced to callers.
const (
	ConstraintTicketNumber        = "tickets_ticket_number_key"
	ConstraintCompanyDatabaseName = "companies_database_name_key"
	ConstraintSettingKey          = "system_settings_setting_key_key"
	ConstraintUserEmail           = "users_email_key"
	ConstraintCompanyCredits      = "companies_ticket_credits_check"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgForeignKey      = "23503"
)

// ErrTicketNumberTaken reports a lost race for a ticket number.
var ErrTicketNumberTaken = errors.New("ticket number already taken")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IsUniqueViolation reports whether err is a unique violation on constraint
// (any constraint when empty).
func IsUniqueViolation(err error, constraint string) bool {
	return hasSQLState(err, pgUniqueViolation, constraint)
}

// IsCheckViolation reports whether err violates the named check constraint.
func IsCheckViolation(err error, constraint string) bool {
	return hasSQLState(err, pgCheckViolation, constraint)
}

// IsForeignKeyViolation reports a dangling reference.
func IsForeignKeyViolation(err error) bool {
	return hasSQLState(err, pgForeignKey, "")
}

// IsNotFound reports whether err means no row matched.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func hasSQLState(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == code && (constraint == "" || pgErr.ConstraintName == constraint)
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// NewPage clamps page inputs to sane values.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PageResult is one page of rows plus the unpaged total.
type PageResult[T any] struct {
	Items      []T
	TotalCount int
	Page       Page
}

// TotalPages is ceil(TotalCount / Size).
func (r PageResult[T]) TotalPages() int {
	if r.Page.Size <= 0 {
		return 0
	}
	return (r.TotalCount + r.Page.Size - 1) / r.Page.Size
}

// conditions accumulates WHERE clauses with positional args.
type conditions struct {
	clauses []string
	args    []any
}

func newConditions() *conditions {
	return &conditions{clauses: []string{"1=1"}}
}

func (c *conditions) add(format string, value any) {
	c.args = append(c.args, value)
	c.clauses = append(c.clauses, fmt.Sprintf(format, len(c.args)))
}

func (c *conditions) raw(clause string) {
	c.clauses = append(c.clauses, clause)
}

// scope adds the tenant predicate for column unless the scope is unscoped.
func (c *conditions) scope(scope access.Scope, column string) {
	if scope.IsUnscoped() {
		return
	}
	c.add(column+"=$%d", *scope.TenantID)
}

func (c *conditions) where() string {
	out := c.clauses[0]
	for _, clause := range c.clauses[1:] {
		out += " AND " + clause
	}
	return out
}

// limitOffset renders pagination placeholders after the current args.
func (c *conditions) limitOffset(page Page) (string, []any) {
	args := append(append([]any{}, c.args...), page.Size, page.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(c.args)+1, len(c.args)+2), args
}
