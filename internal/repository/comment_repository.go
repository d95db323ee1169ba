package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CommentRepository manages ticket thread comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.CommentView, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, user_id, comment, is_internal, is_system)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.UserID,
		comment.Comment,
		comment.Internal,
		comment.System,
	).Scan(&comment.ID, &comment.CreatedAt)
}

// ListByTicket returns the thread oldest first; internal comments are left
// out unless includeInternal is set.
func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.CommentView, error) {
	const query = `
        SELECT tc.id, tc.ticket_id, tc.user_id, tc.comment, tc.is_internal, tc.is_system, tc.created_at, tc.updated_at,
               u.first_name || ' ' || u.last_name
        FROM ticket_comments tc
        JOIN users u ON u.id = tc.user_id
        WHERE tc.ticket_id=$1 AND ($2::boolean OR NOT tc.is_internal)
        ORDER BY tc.created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID, includeInternal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CommentView
	for rows.Next() {
		var view domain.CommentView
		if err := rows.Scan(
			&view.ID,
			&view.TicketID,
			&view.UserID,
			&view.Comment.Comment,
			&view.Internal,
			&view.System,
			&view.CreatedAt,
			&view.UpdatedAt,
			&view.AuthorName,
		); err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, rows.Err()
}
