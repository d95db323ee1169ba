package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/email"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// SettingReader resolves boolean feature toggles.
type SettingReader interface {
	Bool(ctx context.Context, key string, fallback bool) bool
}

// NotificationService turns ticket events into emails.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     email.Sender
	users      repository.UserRepository
	companies  repository.CompanyRepository
	settings   SettingReader
	logger     *zap.Logger
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher  events.Dispatcher
	Sender      email.Sender
	UserRepo    repository.UserRepository
	CompanyRepo repository.CompanyRepository
	Settings    SettingReader
	Logger      *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		sender:     deps.Sender,
		users:      deps.UserRepo,
		companies:  deps.CompanyRepo,
		settings:   deps.Settings,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || !n.enabled(ctx, domain.SettingNotifyOnTicketCreate) {
		return nil
	}
	ticket := payload.Ticket

	staff, err := n.users.ListActiveByCompanyAndRoles(ctx, ticket.CompanyID, []domain.Role{domain.RoleAdmin, domain.RoleSupport})
	if err != nil {
		return fmt.Errorf("load ticket-created recipients: %w", err)
	}
	companyName := ""
	if company, err := n.companies.GetByID(ctx, access.Unscoped(), ticket.CompanyID); err == nil {
		companyName = company.Name
	}

	subject, plain, html := email.TicketCreated(ticket.TicketNumber, ticket.Title, companyName, string(ticket.Priority))
	return n.deliver(ctx, event, dedupeRecipients(staff, ""), subject, plain, html)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok || !n.enabled(ctx, domain.SettingNotifyOnStatusChange) {
		return nil
	}
	ticket := payload.Ticket

	recipients, err := n.participants(ctx, ticket)
	if err != nil {
		return err
	}
	subject, plain, html := email.StatusChanged(ticket.TicketNumber, ticket.Title, string(payload.OldStatus), string(payload.NewStatus))
	return n.deliver(ctx, event, dedupeRecipients(recipients, ""), subject, plain, html)
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok || !n.enabled(ctx, domain.SettingNotifyOnComment) {
		return nil
	}
	recipients, err := n.CommentRecipients(ctx, payload.Ticket, payload.Comment)
	if err != nil {
		return err
	}

	author := "Someone"
	if account, err := n.users.GetByID(ctx, access.Unscoped(), payload.Comment.UserID); err == nil {
		author = account.FullName()
	}
	subject, plain, html := email.CommentAdded(payload.Ticket.TicketNumber, payload.Ticket.Title, author, payload.Comment.Comment, payload.Comment.Internal)
	return n.deliver(ctx, event, recipients, subject, plain, html)
}

// CommentRecipients decides who hears about a comment. Internal comments go
// to the tenant's Admin and Support accounts; public ones to the ticket's
// creator and assignee. The author is never notified.
func (n *NotificationService) CommentRecipients(ctx context.Context, ticket domain.Ticket, comment domain.Comment) ([]domain.Account, error) {
	var candidates []domain.Account
	if comment.Internal {
		staff, err := n.users.ListActiveByCompanyAndRoles(ctx, ticket.CompanyID, []domain.Role{domain.RoleAdmin, domain.RoleSupport})
		if err != nil {
			return nil, fmt.Errorf("load internal comment recipients: %w", err)
		}
		candidates = staff
	} else {
		participants, err := n.participants(ctx, ticket)
		if err != nil {
			return nil, err
		}
		candidates = participants
	}
	return dedupeRecipients(candidates, comment.UserID), nil
}

// participants are the creator and the assignee, when they exist.
func (n *NotificationService) participants(ctx context.Context, ticket domain.Ticket) ([]domain.Account, error) {
	ids := []string{ticket.CreatedByUserID}
	if ticket.AssignedToUserID != nil {
		ids = append(ids, *ticket.AssignedToUserID)
	}
	accounts := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		account, err := n.users.GetByID(ctx, access.Unscoped(), id)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("load participant %s: %w", id, err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

func (n *NotificationService) deliver(ctx context.Context, event events.Event, recipients []domain.Account, subject, plain, html string) error {
	if n.sender == nil || len(recipients) == 0 {
		return nil
	}
	var failed []string
	for _, recipient := range recipients {
		err := n.sender.Send(ctx, email.Message{
			To:        []string{recipient.Email},
			Subject:   subject,
			PlainBody: plain,
			HTMLBody:  html,
		})
		if err != nil {
			n.logger.Warn("notification email failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.String("to", recipient.Email),
				zap.Error(err))
			failed = append(failed, recipient.Email)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("notification to %s failed", strings.Join(failed, ", "))
	}
	n.logger.Debug("notification delivered",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Int("recipients", len(recipients)))
	return nil
}

func (n *NotificationService) enabled(ctx context.Context, key string) bool {
	if n.settings == nil {
		return true
	}
	return n.settings.Bool(ctx, key, true)
}

// dedupeRecipients drops inactive accounts, the excluded author and repeated
// addresses (case-insensitive), preserving order.
func dedupeRecipients(accounts []domain.Account, excludeID string) []domain.Account {
	seen := make(map[string]struct{}, len(accounts))
	out := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		if !account.IsActive || account.ID == excludeID {
			continue
		}
		address := strings.ToLower(strings.TrimSpace(account.Email))
		if address == "" {
			continue
		}
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}
		out = append(out, account)
	}
	return out
}
