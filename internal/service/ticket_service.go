package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// matches ticket_attachments.file_name.
const maxAttachmentNameLen = 255

// AttachmentStore is the file store used for ticket attachments.
type AttachmentStore interface {
	ValidateType(fileName string) bool
	ValidateSize(size int64) bool
	Store(ctx context.Context, fileName, folder string, r io.Reader) (*storage.StoredFile, error)
	Retrieve(ctx context.Context, handle string) ([]byte, error)
	Delete(ctx context.Context, handle string) (bool, error)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets        repository.TicketRepository
	comments       repository.CommentRepository
	attachments    repository.AttachmentRepository
	history        repository.TicketHistoryRepository
	catalog        repository.CatalogRepository
	users          repository.UserRepository
	files          AttachmentStore
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	maxRetries     int
	storageTimeout time.Duration
	now            func() time.Time
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	HistoryRepo    repository.TicketHistoryRepository
	CatalogRepo    repository.CatalogRepository
	UserRepo       repository.UserRepository
	Files          AttachmentStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	MaxRetries     int
	StorageTimeout time.Duration
	Now            func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	TicketTypeID string
	CategoryID   *string
	ModuleID     *string
	Priority     string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Status       string
	Priority     string
	AssignedToMe bool
	Page         int
	PageSize     int
}

// StatusUpdateInput moves a ticket and optionally (re)assigns it. A non-nil
// empty AssignedToUserID clears the assignee.
type StatusUpdateInput struct {
	Status           string
	AssignedToUserID *string
}

// CommentInput describes a new comment.
type CommentInput struct {
	Comment  string
	Internal bool
}

// TicketDetail is a ticket with its thread.
type TicketDetail struct {
	Ticket      domain.TicketView
	Comments    []domain.CommentView
	Attachments []domain.Attachment
	History     []domain.TicketHistory
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxRetries := deps.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	timeout := deps.StorageTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:        deps.TicketRepo,
		comments:       deps.CommentRepo,
		attachments:    deps.AttachmentRepo,
		history:        deps.HistoryRepo,
		catalog:        deps.CatalogRepo,
		users:          deps.UserRepo,
		files:          deps.Files,
		dispatcher:     deps.Dispatcher,
		logger:         logger,
		maxRetries:     maxRetries,
		storageTimeout: timeout,
		now:            now,
	}
}

// CreateTicket opens a ticket in the caller's company. The number is
// allocated by count-then-insert and retried on a unique violation.
func (s *TicketService) CreateTicket(ctx context.Context, rc access.RequestContext, input TicketCreateInput) (*domain.Ticket, error) {
	if !rc.HasTenant() {
		return nil, apperrors.NewMissingTenant()
	}

	priority := domain.TicketPriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		parsed, ok := domain.ParseTicketPriority(input.Priority)
		if !ok {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
		}
		priority = parsed
	}

	ticket := &domain.Ticket{
		CompanyID:       rc.Tenant(),
		CreatedByUserID: rc.AccountID,
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		TicketTypeID:    input.TicketTypeID,
		CategoryID:      trimmedPtr(input.CategoryID),
		ModuleID:        trimmedPtr(input.ModuleID),
		Status:          domain.TicketStatusOpen,
		Priority:        priority,
	}
	if ticket.Title == "" || ticket.Description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	if err := s.validateTaxonomy(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.insertWithNumber(ctx, ticket); err != nil {
		return nil, err
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("company_id", ticket.CompanyID))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  rc.AccountID,
		Payload:  events.TicketCreatedPayload{Ticket: *ticket},
	})
	return ticket, nil
}

func (s *TicketService) insertWithNumber(ctx context.Context, ticket *domain.Ticket) error {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		now := s.now().UTC()
		count, err := s.tickets.CountByNumberPrefix(ctx, domain.TicketNumberPrefix(now))
		if err != nil {
			return err
		}
		ticket.TicketNumber = domain.FormatTicketNumber(now, count+1)

		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrTicketNumberTaken) {
			return err
		}
		s.logger.Debug("ticket number collision; retrying",
			zap.String("ticket_number", ticket.TicketNumber),
			zap.Int("attempt", attempt))
	}
	ticket.TicketNumber = ""
	return apperrors.NewConflict("could not allocate a unique ticket number", map[string]any{"attempts": s.maxRetries})
}

func (s *TicketService) validateTaxonomy(ctx context.Context, ticket *domain.Ticket) error {
	if s.catalog == nil {
		return nil
	}
	ticketType, err := s.catalog.GetTicketType(ctx, ticket.TicketTypeID)
	if err != nil || !ticketType.IsActive {
		if err != nil && !repository.IsNotFound(err) {
			return err
		}
		return apperrors.NewValidationError("unknown ticket type", map[string]any{"ticketTypeId": ticket.TicketTypeID})
	}
	if ticket.CategoryID != nil {
		if _, err := s.catalog.GetCategory(ctx, *ticket.CategoryID); err != nil {
			if !repository.IsNotFound(err) {
				return err
			}
			return apperrors.NewValidationError("unknown category", map[string]any{"categoryId": *ticket.CategoryID})
		}
	}
	if ticket.ModuleID != nil {
		module, err := s.catalog.GetModule(ctx, *ticket.ModuleID)
		if err != nil {
			if !repository.IsNotFound(err) {
				return err
			}
			return apperrors.NewValidationError("unknown module", map[string]any{"moduleId": *ticket.ModuleID})
		}
		if ticket.CategoryID != nil && module.CategoryID != *ticket.CategoryID {
			return apperrors.NewValidationError("module does not belong to category", map[string]any{"moduleId": module.ID})
		}
	}
	return nil
}

// CreateTicketWithAttachments creates the ticket first; attachments are
// stored afterwards and a storage failure is reported as Unavailable while
// the ticket stays committed.
func (s *TicketService) CreateTicketWithAttachments(ctx context.Context, rc access.RequestContext, input TicketCreateInput, files []UploadedFile) (*domain.Ticket, []domain.Attachment, error) {
	for _, file := range files {
		if err := s.validateUpload(file); err != nil {
			return nil, nil, err
		}
	}

	ticket, err := s.CreateTicket(ctx, rc, input)
	if err != nil {
		return nil, nil, err
	}

	stored := make([]domain.Attachment, 0, len(files))
	for _, file := range files {
		attachment, err := s.storeAttachment(ctx, rc, ticket, file, nil)
		if err != nil {
			s.logger.Warn("attachment storage failed after ticket creation",
				zap.String("ticket_id", ticket.ID),
				zap.String("file", file.Name),
				zap.Error(err))
			return ticket, stored, apperrors.NewUnavailable("ticket created but attachment could not be stored", err, map[string]any{
				"ticketId":     ticket.ID,
				"ticketNumber": ticket.TicketNumber,
				"file":         file.Name,
			})
		}
		stored = append(stored, *attachment)
	}
	return ticket, stored, nil
}

// AddAttachment stores a file against an existing ticket.
func (s *TicketService) AddAttachment(ctx context.Context, rc access.RequestContext, ticketID string, file UploadedFile, description *string) (*domain.Attachment, error) {
	scope, err := scopeOrForbidden(rc, access.ResourceAttachment)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.Get(ctx, scope, ticketID)
	if err != nil {
		return nil, mapNotFound(err, "ticket")
	}
	if err := s.validateUpload(file); err != nil {
		return nil, err
	}
	attachment, err := s.storeAttachment(ctx, rc, ticket, file, trimmedPtr(description))
	if err != nil {
		s.logger.Warn("attachment storage failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return nil, apperrors.NewUnavailable("attachment could not be stored", err, map[string]any{"ticketId": ticket.ID})
	}
	return attachment, nil
}

// GetAttachment loads an attachment and its bytes through the caller's
// ticket scope.
func (s *TicketService) GetAttachment(ctx context.Context, rc access.RequestContext, ticketID, attachmentID string) (*domain.Attachment, []byte, error) {
	scope, err := scopeOrForbidden(rc, access.ResourceAttachment)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.tickets.Get(ctx, scope, ticketID); err != nil {
		return nil, nil, mapNotFound(err, "ticket")
	}
	attachment, err := s.attachments.Get(ctx, ticketID, attachmentID)
	if err != nil {
		return nil, nil, mapNotFound(err, "attachment")
	}
	if s.files == nil {
		return nil, nil, apperrors.NewUnavailable("file storage not configured", nil, nil)
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	body, err := s.files.Retrieve(readCtx, attachment.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("attachment file missing", zap.String("attachment_id", attachment.ID), zap.String("handle", attachment.FilePath))
			return nil, nil, apperrors.NewNotFound("attachment file", nil)
		}
		return nil, nil, apperrors.NewUnavailable("attachment could not be read", err, map[string]any{"attachmentId": attachment.ID})
	}
	return attachment, body, nil
}

func (s *TicketService) validateUpload(file UploadedFile) error {
	if s.files == nil {
		return apperrors.NewUnavailable("file storage not configured", nil, nil)
	}
	if utf8.RuneCountInString(file.Name) > maxAttachmentNameLen {
		return apperrors.NewValidationError("file name is too long", map[string]any{"file": file.Name})
	}
	if !s.files.ValidateType(file.Name) {
		return apperrors.NewValidationError("file type not allowed", map[string]any{"file": file.Name})
	}
	if !s.files.ValidateSize(file.Size) {
		return apperrors.NewValidationError("file is empty or too large", map[string]any{"file": file.Name, "size": file.Size})
	}
	return nil
}

func (s *TicketService) storeAttachment(ctx context.Context, rc access.RequestContext, ticket *domain.Ticket, file UploadedFile, description *string) (*domain.Attachment, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	body, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer body.Close()

	stored, err := s.files.Store(storeCtx, file.Name, fmt.Sprintf("tickets/%s", ticket.ID), body)
	if err != nil {
		return nil, err
	}

	attachment := &domain.Attachment{
		TicketID:         ticket.ID,
		UploadedByUserID: rc.AccountID,
		FileName:         file.Name,
		FilePath:         stored.Handle,
		ContentType:      stored.ContentType,
		FileSize:         stored.Size,
		Description:      description,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		if _, delErr := s.files.Delete(context.WithoutCancel(ctx), stored.Handle); delErr != nil {
			s.logger.Warn("orphaned attachment file", zap.String("handle", stored.Handle), zap.Error(delErr))
		}
		return nil, err
	}
	return attachment, nil
}

// ListTickets returns the caller's visible tickets, newest first.
func (s *TicketService) ListTickets(ctx context.Context, rc access.RequestContext, filter TicketListFilter) (repository.PageResult[domain.TicketView], error) {
	page := repository.NewPage(filter.Page, filter.PageSize)
	scope, err := scopeOrForbidden(rc, access.ResourceTicket)
	if err != nil {
		return repository.PageResult[domain.TicketView]{Page: page}, err
	}

	repoFilter := repository.TicketFilter{}
	if filter.Status != "" {
		status, ok := domain.ParseTicketStatus(filter.Status)
		if !ok {
			return repository.PageResult[domain.TicketView]{Page: page}, apperrors.NewValidationError("invalid status filter", map[string]any{"status": filter.Status})
		}
		repoFilter.Status = &status
	}
	if filter.Priority != "" {
		priority, ok := domain.ParseTicketPriority(filter.Priority)
		if !ok {
			return repository.PageResult[domain.TicketView]{Page: page}, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": filter.Priority})
		}
		repoFilter.Priority = &priority
	}
	if filter.AssignedToMe {
		repoFilter.AssignedTo = &rc.AccountID
	}
	return s.tickets.List(ctx, scope, repoFilter, page)
}

// ListCompanyTickets pages through one company's tickets.
func (s *TicketService) ListCompanyTickets(ctx context.Context, rc access.RequestContext, companyID string, page repository.Page) (repository.PageResult[domain.TicketView], error) {
	scope, err := scopeOrForbidden(rc, access.ResourceTicket)
	if err != nil {
		return repository.PageResult[domain.TicketView]{Page: page}, err
	}
	return s.tickets.List(ctx, scope, repository.TicketFilter{CompanyID: &companyID}, page)
}

// GetTicket loads the ticket with comments, attachments and history.
// Internal comments and history are left out for non-staff callers.
func (s *TicketService) GetTicket(ctx context.Context, rc access.RequestContext, id string) (*TicketDetail, error) {
	scope, err := scopeOrForbidden(rc, access.ResourceTicket)
	if err != nil {
		return nil, err
	}
	view, err := s.tickets.GetView(ctx, scope, id)
	if err != nil {
		return nil, mapNotFound(err, "ticket")
	}

	detail := &TicketDetail{Ticket: *view}
	staff := access.Can(rc, access.ActionViewInternal)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		comments, err := s.comments.ListByTicket(gctx, view.ID, staff)
		detail.Comments = comments
		return err
	})
	g.Go(func() error {
		attachments, err := s.attachments.ListByTicket(gctx, view.ID)
		detail.Attachments = attachments
		return err
	})
	if staff && s.history != nil {
		g.Go(func() error {
			history, err := s.history.ListByTicket(gctx, view.ID)
			detail.History = history
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateStatus applies a lifecycle transition and optional reassignment
// under a row lock.
func (s *TicketService) UpdateStatus(ctx context.Context, rc access.RequestContext, ticketID string, input StatusUpdateInput) (*domain.Ticket, error) {
	if err := requireAction(rc, access.ActionChangeStatus); err != nil {
		return nil, err
	}
	next, ok := domain.ParseTicketStatus(input.Status)
	if !ok {
		return nil, apperrors.NewInvalidState("unknown ticket status", map[string]any{"status": input.Status})
	}
	scope, err := scopeOrForbidden(rc, access.ResourceTicket)
	if err != nil {
		return nil, err
	}

	var assignee *domain.Account
	clearAssignee := input.AssignedToUserID != nil && strings.TrimSpace(*input.AssignedToUserID) == ""
	if input.AssignedToUserID != nil && !clearAssignee {
		assignee, err = s.users.GetByID(ctx, access.Unscoped(), strings.TrimSpace(*input.AssignedToUserID))
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, apperrors.NewValidationError("assignee not found", map[string]any{"assignedToUserId": *input.AssignedToUserID})
			}
			return nil, err
		}
		if !assignee.IsActive || !domain.HighestRole(assignee.Roles).IsStaff() {
			return nil, apperrors.NewValidationError("assignee must be an active Admin or Support account", map[string]any{"assignedToUserId": assignee.ID})
		}
	}

	var previous domain.TicketStatus
	ticket, err := s.tickets.Mutate(ctx, scope, ticketID, func(t *domain.Ticket) ([]domain.TicketHistory, error) {
		previous = t.Status
		if !domain.CanTransition(t.Status, next) {
			return nil, apperrors.NewInvalidState("illegal status transition", map[string]any{"from": t.Status, "to": next})
		}
		if assignee != nil && assignee.CompanyID != nil && *assignee.CompanyID != t.CompanyID {
			return nil, apperrors.NewValidationError("assignee belongs to another company", map[string]any{"assignedToUserId": assignee.ID})
		}

		var history []domain.TicketHistory
		actor := rc.AccountID
		if t.Status != next {
			history = append(history, domain.TicketHistory{
				ChangedByID: &actor,
				ChangeType:  domain.ChangeTypeStatus,
				OldValue:    strPtr(string(t.Status)),
				NewValue:    strPtr(string(next)),
			})
			t.Status = next
		}

		var newAssignee *string
		switch {
		case assignee != nil:
			newAssignee = &assignee.ID
		case clearAssignee:
			newAssignee = nil
		default:
			newAssignee = t.AssignedToUserID
		}
		if !sameID(t.AssignedToUserID, newAssignee) {
			history = append(history, domain.TicketHistory{
				ChangedByID: &actor,
				ChangeType:  domain.ChangeTypeAssignee,
				OldValue:    t.AssignedToUserID,
				NewValue:    newAssignee,
			})
			t.AssignedToUserID = newAssignee
		}
		return history, nil
	})
	if err != nil {
		return nil, mapNotFound(err, "ticket")
	}

	if previous != ticket.Status {
		s.logger.Info("ticket status changed",
			zap.String("ticket_id", ticket.ID),
			zap.String("from", string(previous)),
			zap.String("to", string(ticket.Status)))
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			ActorID:  rc.AccountID,
			Payload:  events.TicketStatusChangedPayload{Ticket: *ticket, OldStatus: previous, NewStatus: ticket.Status},
		})
	}
	return ticket, nil
}

// AddComment appends to the thread. Only staff can write internal comments;
// the flag is silently dropped for everyone else.
func (s *TicketService) AddComment(ctx context.Context, rc access.RequestContext, ticketID string, input CommentInput) (*domain.Comment, error) {
	body := strings.TrimSpace(input.Comment)
	if body == "" {
		return nil, apperrors.NewValidationError("comment is required", nil)
	}
	scope, err := scopeOrForbidden(rc, access.ResourceComment)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.Get(ctx, scope, ticketID)
	if err != nil {
		return nil, mapNotFound(err, "ticket")
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		UserID:   rc.AccountID,
		Comment:  body,
		Internal: input.Internal && access.Can(rc, access.ActionWriteInternal),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  rc.AccountID,
		Payload:  events.CommentAddedPayload{Ticket: *ticket, Comment: *comment},
	})
	return comment, nil
}

// AutoCloseResolved closes Resolved tickets untouched for olderThan.
func (s *TicketService) AutoCloseResolved(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-olderThan)
	closed, err := s.tickets.CloseResolvedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for i := range closed {
		ticket := closed[i]
		if s.history != nil {
			entry := &domain.TicketHistory{
				TicketID:   ticket.ID,
				ChangeType: domain.ChangeTypeStatus,
				OldValue:   strPtr(string(domain.TicketStatusResolved)),
				NewValue:   strPtr(string(domain.TicketStatusClosed)),
			}
			if err := s.history.Create(ctx, entry); err != nil {
				s.logger.Warn("failed to record auto-close history", zap.String("ticket_id", ticket.ID), zap.Error(err))
			}
		}
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Payload: events.TicketStatusChangedPayload{
				Ticket:    ticket,
				OldStatus: domain.TicketStatusResolved,
				NewStatus: domain.TicketStatusClosed,
			},
		})
	}
	return len(closed), nil
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
