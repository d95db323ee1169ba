package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	Get(ctx context.Context, ticketID, id string) (*domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, uploaded_by_user_id, file_name, file_path, content_type, file_size, description)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.UploadedByUserID,
		attachment.FileName,
		attachment.FilePath,
		attachment.ContentType,
		attachment.FileSize,
		attachment.Description,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, uploaded_by_user_id, file_name, file_path, content_type, file_size, description, created_at
        FROM ticket_attachments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.UploadedByUserID,
			&attachment.FileName,
			&attachment.FilePath,
			&attachment.ContentType,
			&attachment.FileSize,
			&attachment.Description,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

// Get loads one attachment of a ticket. An attachment of another ticket is
// reported as pgx.ErrNoRows.
func (r *attachmentRepository) Get(ctx context.Context, ticketID, id string) (*domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, uploaded_by_user_id, file_name, file_path, content_type, file_size, description, created_at
        FROM ticket_attachments WHERE id=$1 AND ticket_id=$2`
	var attachment domain.Attachment
	err := r.pool.QueryRow(ctx, query, id, ticketID).Scan(
		&attachment.ID,
		&attachment.TicketID,
		&attachment.UploadedByUserID,
		&attachment.FileName,
		&attachment.FilePath,
		&attachment.ContentType,
		&attachment.FileSize,
		&attachment.Description,
		&attachment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}
