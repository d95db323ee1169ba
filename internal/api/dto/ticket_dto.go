package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload. Multipart requests carry the same fields as
// form values plus any number of "files".
type CreateTicketRequest struct {
	Title        string  `json:"title" form:"title" validate:"required,max=200"`
	Description  string  `json:"description" form:"description" validate:"required"`
	TicketTypeID string  `json:"ticketTypeId" form:"ticketTypeId" validate:"required,optuuid"`
	CategoryID   *string `json:"categoryId" form:"categoryId" validate:"omitempty,optuuid"`
	ModuleID     *string `json:"moduleId" form:"moduleId" validate:"omitempty,optuuid"`
	Priority     string  `json:"priority" form:"priority"`
}

// TicketListQuery captures query filters.
type TicketListQuery struct {
	PageQuery
	Status       string `query:"status"`
	Priority     string `query:"priority"`
	AssignedToMe bool   `query:"assignedToMe"`
}

// UpdateStatusRequest payload. An empty assignedToUserId clears the assignee.
type UpdateStatusRequest struct {
	Status           string  `json:"status" validate:"required"`
	AssignedToUserID *string `json:"assignedToUserId" validate:"omitempty,optuuid"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Comment    string `json:"comment" validate:"required,max=4000"`
	IsInternal bool   `json:"isInternal"`
}

// TicketSummary response.
type TicketSummary struct {
	ID               string                `json:"id"`
	TicketNumber     string                `json:"ticketNumber"`
	Title            string                `json:"title"`
	Status           domain.TicketStatus   `json:"status"`
	Priority         domain.TicketPriority `json:"priority"`
	CompanyID        string                `json:"companyId"`
	CompanyName      string                `json:"companyName,omitempty"`
	CreatedByUserID  string                `json:"createdByUserId"`
	CreatedByName    string                `json:"createdByName,omitempty"`
	AssignedToUserID *string               `json:"assignedToUserId"`
	AssignedToName   *string               `json:"assignedToName,omitempty"`
	TicketTypeID     string                `json:"ticketTypeId"`
	TicketTypeName   *string               `json:"ticketTypeName,omitempty"`
	CategoryID       *string               `json:"categoryId"`
	CategoryName     *string               `json:"categoryName,omitempty"`
	ModuleID         *string               `json:"moduleId"`
	ModuleName       *string               `json:"moduleName,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string               `json:"description"`
	Comments    []CommentResponse    `json:"comments"`
	Attachments []AttachmentResponse `json:"attachments"`
	History     []HistoryResponse    `json:"history,omitempty"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	AuthorName string    `json:"authorName,omitempty"`
	Comment    string    `json:"comment"`
	IsInternal bool      `json:"isInternal"`
	IsSystem   bool      `json:"isSystemMessage"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	FilePath    string    `json:"filePath"`
	ContentType string    `json:"contentType"`
	FileSize    int64     `json:"fileSize"`
	Description *string   `json:"description,omitempty"`
	UploadedBy  string    `json:"uploadedByUserId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID          string                  `json:"id"`
	ChangeType  domain.TicketChangeType `json:"changeType"`
	ChangedByID *string                 `json:"changedByUserId"`
	OldValue    *string                 `json:"oldValue"`
	NewValue    *string                 `json:"newValue"`
	CreatedAt   time.Time               `json:"createdAt"`
}

func FromTicket(t domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:               t.ID,
		TicketNumber:     t.TicketNumber,
		Title:            t.Title,
		Status:           t.Status,
		Priority:         t.Priority,
		CompanyID:        t.CompanyID,
		CreatedByUserID:  t.CreatedByUserID,
		AssignedToUserID: t.AssignedToUserID,
		TicketTypeID:     t.TicketTypeID,
		CategoryID:       t.CategoryID,
		ModuleID:         t.ModuleID,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func FromTicketView(v domain.TicketView) TicketSummary {
	out := FromTicket(v.Ticket)
	out.CompanyName = v.CompanyName
	out.CreatedByName = v.CreatedByName
	out.AssignedToName = v.AssignedToName
	out.TicketTypeName = v.TicketTypeName
	out.CategoryName = v.CategoryName
	out.ModuleName = v.ModuleName
	return out
}

// FromTicketDetail assembles the detail document.
func FromTicketDetail(view domain.TicketView, comments []domain.CommentView, attachments []domain.Attachment, history []domain.TicketHistory) TicketDetailResponse {
	resp := TicketDetailResponse{
		TicketSummary: FromTicketView(view),
		Description:   view.Description,
		Comments:      make([]CommentResponse, 0, len(comments)),
		Attachments:   make([]AttachmentResponse, 0, len(attachments)),
	}
	for _, c := range comments {
		resp.Comments = append(resp.Comments, FromCommentView(c))
	}
	for _, a := range attachments {
		resp.Attachments = append(resp.Attachments, FromAttachment(a))
	}
	for _, h := range history {
		resp.History = append(resp.History, HistoryResponse{
			ID:          h.ID,
			ChangeType:  h.ChangeType,
			ChangedByID: h.ChangedByID,
			OldValue:    h.OldValue,
			NewValue:    h.NewValue,
			CreatedAt:   h.CreatedAt,
		})
	}
	return resp
}

func FromComment(c domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		UserID:     c.UserID,
		Comment:    c.Comment,
		IsInternal: c.Internal,
		IsSystem:   c.System,
		CreatedAt:  c.CreatedAt,
	}
}

func FromCommentView(c domain.CommentView) CommentResponse {
	out := FromComment(c.Comment)
	out.AuthorName = c.AuthorName
	return out
}

func FromAttachment(a domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		FileName:    a.FileName,
		FilePath:    a.FilePath,
		ContentType: a.ContentType,
		FileSize:    a.FileSize,
		Description: a.Description,
		UploadedBy:  a.UploadedByUserID,
		CreatedAt:   a.CreatedAt,
	}
}
