package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints for every role; the service
// applies tenant scope and role checks.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets. Accepts JSON or multipart with "files".
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	input := service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		TicketTypeID: req.TicketTypeID,
		CategoryID:   req.CategoryID,
		ModuleID:     req.ModuleID,
		Priority:     req.Priority,
	}

	var files []service.UploadedFile
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return apperrors.NewValidationError("invalid multipart payload", nil)
		}
		for _, fh := range form.File["files"] {
			files = append(files, uploadedFile(fh))
		}
	}

	if len(files) == 0 {
		ticket, err := h.service.CreateTicket(c.UserContext(), rc, input)
		if err != nil {
			return err
		}
		return withMessage(c, fiber.StatusCreated, "ticket created", fiber.Map{"data": dto.FromTicket(*ticket)})
	}

	ticket, attachments, err := h.service.CreateTicketWithAttachments(c.UserContext(), rc, input, files)
	if err != nil {
		return err
	}
	out := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, dto.FromAttachment(a))
	}
	return withMessage(c, fiber.StatusCreated, "ticket created", fiber.Map{
		"data":        dto.FromTicket(*ticket),
		"attachments": out,
	})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var q dto.TicketListQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	result, err := h.service.ListTickets(c.UserContext(), rc, service.TicketListFilter{
		Status:       q.Status,
		Priority:     q.Priority,
		AssignedToMe: q.AssignedToMe,
		Page:         q.Page,
		PageSize:     q.PageSize,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(result, dto.FromTicketView))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), rc, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicketDetail(detail.Ticket, detail.Comments, detail.Attachments, detail.History)})
}

// UpdateStatus PUT /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), rc, id, service.StatusUpdateInput{
		Status:           req.Status,
		AssignedToUserID: req.AssignedToUserID,
	})
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "ticket status updated", fiber.Map{"data": dto.FromTicket(*ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), rc, id, service.CommentInput{
		Comment:  req.Comment,
		Internal: req.IsInternal,
	})
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusCreated, "comment added", fiber.Map{"data": dto.FromComment(*comment)})
}

const maxAttachmentDescriptionLen = 500

// AddAttachment POST /tickets/:id/attachments (multipart "file").
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file is required", nil)
	}
	var description *string
	if d := strings.TrimSpace(c.FormValue("description")); d != "" {
		if utf8.RuneCountInString(d) > maxAttachmentDescriptionLen {
			return apperrors.NewValidationError("description must be at most 500 characters long", map[string]any{"description": "too long"})
		}
		description = &d
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	attachment, err := h.service.AddAttachment(c.UserContext(), rc, id, uploadedFile(fh), description)
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusCreated, "attachment uploaded", fiber.Map{"data": dto.FromAttachment(*attachment)})
}

// DownloadAttachment GET /tickets/:id/attachments/:attachmentId.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	attachmentID, err := pathID(c, "attachmentId")
	if err != nil {
		return err
	}
	attachment, body, err := h.service.GetAttachment(c.UserContext(), rc, id, attachmentID)
	if err != nil {
		return err
	}
	c.Attachment(attachment.FileName)
	c.Set(fiber.HeaderContentType, attachment.ContentType)
	return c.Send(body)
}

// Statuses GET /tickets/statuses lists the lifecycle and priorities.
func (h *TicketsHandler) Statuses(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"statuses":   domain.TicketStatuses(),
		"priorities": domain.TicketPriorities(),
	}})
}
