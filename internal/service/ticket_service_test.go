package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	acmeID   = "company-acme"
	globexID = "company-globex"
)

var fixedNow = time.Date(2024, time.August, 14, 9, 30, 0, 0, time.UTC)

func account(id, companyID string, roles ...domain.Role) *domain.Account {
	a := &domain.Account{
		ID:        id,
		FirstName: strings.ToUpper(id[:1]) + id[1:],
		Email:     id + "@example.test",
		Roles:     roles,
		IsActive:  true,
	}
	if companyID != "" {
		a.CompanyID = &companyID
	}
	return a
}

func contextFor(a *domain.Account) access.RequestContext {
	return access.RequestContext{AccountID: a.ID, Email: a.Email, Name: a.FullName(), TenantID: a.CompanyID, Roles: a.Roles}
}

type ticketFixture struct {
	svc         *TicketService
	tickets     *fakeTickets
	history     *fakeHistory
	comments    *fakeComments
	attachments *fakeAttachments
	files       *fakeFiles
	users       *fakeUsers
	published   []events.Event
	mu          sync.Mutex

	superAdmin, acmeAdmin, acmeSupport, acmeCustomer, globexSupport, globexCustomer *domain.Account
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	f := &ticketFixture{
		history:        &fakeHistory{},
		comments:       &fakeComments{},
		attachments:    &fakeAttachments{},
		files:          &fakeFiles{},
		superAdmin:     account("root", "", domain.RoleSuperAdmin),
		acmeAdmin:      account("alice", acmeID, domain.RoleAdmin),
		acmeSupport:    account("sam", acmeID, domain.RoleSupport),
		acmeCustomer:   account("carl", acmeID, domain.RoleCustomer),
		globexSupport:  account("gina", globexID, domain.RoleSupport),
		globexCustomer: account("gus", globexID, domain.RoleCustomer),
	}
	f.tickets = newFakeTickets(f.history)
	f.users = newFakeUsers(f.superAdmin, f.acmeAdmin, f.acmeSupport, f.acmeCustomer, f.globexSupport, f.globexCustomer)

	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.published = append(f.published, e)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketCreated, record)
	dispatcher.Subscribe(events.EventTicketStatusChanged, record)
	dispatcher.Subscribe(events.EventCommentAdded, record)

	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		CommentRepo:    f.comments,
		AttachmentRepo: f.attachments,
		HistoryRepo:    f.history,
		CatalogRepo:    newFakeCatalog(),
		UserRepo:       f.users,
		Files:          f.files,
		Dispatcher:     dispatcher,
		Now:            func() time.Time { return fixedNow },
	})
	return f
}

func (f *ticketFixture) create(t *testing.T, by *domain.Account) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.CreateTicket(context.Background(), contextFor(by), TicketCreateInput{
		Title:        "Printer on fire",
		Description:  "It is still printing",
		TicketTypeID: "tt-support",
	})
	require.NoError(t, err)
	return ticket
}

func (f *ticketFixture) eventTypes() []events.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.EventType, len(f.published))
	for i, e := range f.published {
		out[i] = e.Type
	}
	return out
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, code), "expected %s, got %v", code, err)
}

func TestCreateTicket_DefaultsAndNumber(t *testing.T) {
	f := newTicketFixture(t)

	ticket := f.create(t, f.acmeCustomer)

	assert.Equal(t, "TK-2024-08-001", ticket.TicketNumber)
	assert.Equal(t, acmeID, ticket.CompanyID)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, f.acmeCustomer.ID, ticket.CreatedByUserID)
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.eventTypes())

	second := f.create(t, f.globexCustomer)
	assert.Equal(t, "TK-2024-08-002", second.TicketNumber)
}

func TestCreateTicket_RejectsBadInput(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	erp, crm, ledger := "cat-erp", "cat-crm", "mod-ledger"

	cases := []struct {
		name  string
		rc    access.RequestContext
		input TicketCreateInput
		code  string
	}{
		{"no tenant", contextFor(f.superAdmin), TicketCreateInput{Title: "a", Description: "b", TicketTypeID: "tt-support"}, apperrors.CodeMissingTenant},
		{"unknown priority", contextFor(f.acmeCustomer), TicketCreateInput{Title: "a", Description: "b", TicketTypeID: "tt-support", Priority: "Urgent"}, apperrors.CodeValidation},
		{"inactive type", contextFor(f.acmeCustomer), TicketCreateInput{Title: "a", Description: "b", TicketTypeID: "tt-retired"}, apperrors.CodeValidation},
		{"unknown type", contextFor(f.acmeCustomer), TicketCreateInput{Title: "a", Description: "b", TicketTypeID: "nope"}, apperrors.CodeValidation},
		{"blank title", contextFor(f.acmeCustomer), TicketCreateInput{Title: "  ", Description: "b", TicketTypeID: "tt-support"}, apperrors.CodeValidation},
		{"module outside category", contextFor(f.acmeCustomer), TicketCreateInput{Title: "a", Description: "b", TicketTypeID: "tt-support", CategoryID: &crm, ModuleID: &ledger}, apperrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateTicket(ctx, tc.rc, tc.input)
			requireCode(t, err, tc.code)
		})
	}

	ticket, err := f.svc.CreateTicket(ctx, contextFor(f.acmeCustomer), TicketCreateInput{
		Title: "a", Description: "b", TicketTypeID: "tt-support", CategoryID: &erp, ModuleID: &ledger, Priority: "critical",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityCritical, ticket.Priority)
}

func TestCreateTicket_NumbersAreUniqueUnderConcurrency(t *testing.T) {
	const workers = 20
	f := newTicketFixture(t)
	f.tickets.beforeCreate = runtime.Gosched
	f.svc.maxRetries = workers

	var wg sync.WaitGroup
	numbers := make(chan string, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket, err := f.svc.CreateTicket(context.Background(), contextFor(f.acmeCustomer), TicketCreateInput{
				Title: "concurrent", Description: "load", TicketTypeID: "tt-support",
			})
			if err != nil {
				errs <- err
				return
			}
			numbers <- ticket.TicketNumber
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[string]bool, workers)
	for number := range numbers {
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	require.Len(t, seen, workers)
	for i := 1; i <= workers; i++ {
		assert.True(t, seen[fmt.Sprintf("TK-2024-08-%03d", i)], "missing sequence %d", i)
	}
}

// staleCounter always reports an empty month, so every candidate collides.
type staleCounter struct{ *fakeTickets }

func (staleCounter) CountByNumberPrefix(context.Context, string) (int, error) { return 0, nil }

func TestCreateTicket_ConflictAfterRetriesExhausted(t *testing.T) {
	f := newTicketFixture(t)
	f.create(t, f.acmeCustomer)
	f.svc.tickets = staleCounter{f.tickets}

	_, err := f.svc.CreateTicket(context.Background(), contextFor(f.acmeCustomer), TicketCreateInput{
		Title: "again", Description: "again", TicketTypeID: "tt-support",
	})
	requireCode(t, err, apperrors.CodeConflict)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.create(t, f.acmeCustomer)
	support := contextFor(f.acmeSupport)

	_, err := f.svc.UpdateStatus(ctx, contextFor(f.acmeCustomer), ticket.ID, StatusUpdateInput{Status: "InProgress"})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.UpdateStatus(ctx, support, ticket.ID, StatusUpdateInput{Status: "Escalated"})
	requireCode(t, err, apperrors.CodeInvalidState)

	_, err = f.svc.UpdateStatus(ctx, support, ticket.ID, StatusUpdateInput{Status: "Resolved"})
	requireCode(t, err, apperrors.CodeInvalidState)

	updated, err := f.svc.UpdateStatus(ctx, support, ticket.ID, StatusUpdateInput{Status: "in_progress", AssignedToUserID: &f.acmeSupport.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	require.NotNil(t, updated.AssignedToUserID)
	assert.Equal(t, f.acmeSupport.ID, *updated.AssignedToUserID)

	closed, err := f.svc.UpdateStatus(ctx, contextFor(f.acmeAdmin), ticket.ID, StatusUpdateInput{Status: "Closed"})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)

	for _, next := range []string{"Open", "InProgress", "Resolved", "Closed"} {
		_, err = f.svc.UpdateStatus(ctx, support, ticket.ID, StatusUpdateInput{Status: next})
		requireCode(t, err, apperrors.CodeInvalidState)
	}

	history, err := f.history.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, domain.ChangeTypeStatus, history[0].ChangeType)
	assert.Equal(t, domain.ChangeTypeAssignee, history[1].ChangeType)
	assert.Equal(t, "Closed", *history[2].NewValue)

	assert.Equal(t, []events.EventType{
		events.EventTicketCreated, events.EventTicketStatusChanged, events.EventTicketStatusChanged,
	}, f.eventTypes())
}

func TestUpdateStatus_AnyStateToClosed(t *testing.T) {
	for _, from := range []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusResolved} {
		t.Run(string(from), func(t *testing.T) {
			f := newTicketFixture(t)
			ticket := f.create(t, f.acmeCustomer)
			f.tickets.tickets[ticket.ID].Status = from

			closed, err := f.svc.UpdateStatus(context.Background(), contextFor(f.acmeSupport), ticket.ID, StatusUpdateInput{Status: "Closed"})
			require.NoError(t, err)
			assert.Equal(t, domain.TicketStatusClosed, closed.Status)
		})
	}
}

func TestUpdateStatus_Assignee(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.create(t, f.acmeCustomer)
	support := contextFor(f.acmeSupport)

	_, err := f.svc.UpdateStatus(ctx, support, ticket.ID, StatusUpdateInput{Status: "Open", AssignedToUserID: &f.acmeCustomer.ID})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.UpdateStatus(ctx, contextFor(f.superAdmin), ticket.ID, StatusUpdateInput{Status: "Open", AssignedToUserID: &f.globexSupport.ID})
	requireCode(t, err, apperrors.CodeValidation)

	assigned, err := f.svc.UpdateStatus(ctx, support, ticket.ID, StatusUpdateInput{Status: "Open", AssignedToUserID: &f.acmeAdmin.ID})
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedToUserID)

	empty := ""
	cleared, err := f.svc.UpdateStatus(ctx, support, ticket.ID, StatusUpdateInput{Status: "Open", AssignedToUserID: &empty})
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedToUserID)

	// assignment alone never publishes a status change
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.eventTypes())
}

func TestCrossTenantAccessIsNotFound(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.create(t, f.acmeCustomer)

	_, err := f.svc.GetTicket(ctx, contextFor(f.globexCustomer), ticket.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.UpdateStatus(ctx, contextFor(f.globexSupport), ticket.ID, StatusUpdateInput{Status: "Closed"})
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.AddComment(ctx, contextFor(f.globexCustomer), ticket.ID, CommentInput{Comment: "peek"})
	requireCode(t, err, apperrors.CodeNotFound)

	list, err := f.svc.ListTickets(ctx, contextFor(f.globexCustomer), TicketListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)

	list, err = f.svc.ListTickets(ctx, contextFor(f.superAdmin), TicketListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalCount)
}

func TestAddComment_CustomerCannotWriteInternal(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.create(t, f.acmeCustomer)

	comment, err := f.svc.AddComment(ctx, contextFor(f.acmeCustomer), ticket.ID, CommentInput{Comment: "secret?", Internal: true})
	require.NoError(t, err)
	assert.False(t, comment.Internal)

	staffNote, err := f.svc.AddComment(ctx, contextFor(f.acmeSupport), ticket.ID, CommentInput{Comment: "escalate", Internal: true})
	require.NoError(t, err)
	assert.True(t, staffNote.Internal)

	_, err = f.svc.AddComment(ctx, contextFor(f.acmeSupport), ticket.ID, CommentInput{Comment: "  "})
	requireCode(t, err, apperrors.CodeValidation)

	customerView, err := f.svc.GetTicket(ctx, contextFor(f.acmeCustomer), ticket.ID)
	require.NoError(t, err)
	require.Len(t, customerView.Comments, 1)
	assert.Equal(t, "secret?", customerView.Comments[0].Comment.Comment)
	assert.Empty(t, customerView.History)

	staffView, err := f.svc.GetTicket(ctx, contextFor(f.acmeSupport), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, staffView.Comments, 2)
}

func upload(name, body string) UploadedFile {
	return UploadedFile{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func TestCreateTicketWithAttachments(t *testing.T) {
	ctx := context.Background()

	t.Run("stored", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket, attachments, err := f.svc.CreateTicketWithAttachments(ctx, contextFor(f.acmeCustomer), TicketCreateInput{
			Title: "with file", Description: "see log", TicketTypeID: "tt-support",
		}, []UploadedFile{upload("log.txt", "boom")})
		require.NoError(t, err)
		require.Len(t, attachments, 1)
		assert.Equal(t, ticket.ID, attachments[0].TicketID)
		assert.Equal(t, int64(4), attachments[0].FileSize)
	})

	t.Run("bad type rejected before the ticket exists", func(t *testing.T) {
		f := newTicketFixture(t)
		_, _, err := f.svc.CreateTicketWithAttachments(ctx, contextFor(f.acmeCustomer), TicketCreateInput{
			Title: "with file", Description: "see log", TicketTypeID: "tt-support",
		}, []UploadedFile{upload("run.exe", "MZ")})
		requireCode(t, err, apperrors.CodeValidation)
		assert.Empty(t, f.tickets.tickets)
	})

	t.Run("storage failure keeps the ticket", func(t *testing.T) {
		f := newTicketFixture(t)
		f.files.storeErr = errors.New("disk full")
		ticket, _, err := f.svc.CreateTicketWithAttachments(ctx, contextFor(f.acmeCustomer), TicketCreateInput{
			Title: "with file", Description: "see log", TicketTypeID: "tt-support",
		}, []UploadedFile{upload("log.txt", "boom")})
		requireCode(t, err, apperrors.CodeUnavailable)
		require.NotNil(t, ticket)
		assert.Contains(t, f.tickets.tickets, ticket.ID)
		assert.Equal(t, ticket.ID, apperrors.ToDomainError(err).Details["ticketId"])
	})
}

func TestAddAttachment_RemovesFileWhenRecordFails(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.create(t, f.acmeCustomer)
	f.attachments.fail = errors.New("insert failed")

	_, err := f.svc.AddAttachment(context.Background(), contextFor(f.acmeCustomer), ticket.ID, upload("log.txt", "boom"), nil)
	requireCode(t, err, apperrors.CodeUnavailable)
	assert.Equal(t, f.files.stored, f.files.deleted)
}

func TestAutoCloseResolved(t *testing.T) {
	f := newTicketFixture(t)
	old := f.create(t, f.acmeCustomer)
	fresh := f.create(t, f.acmeCustomer)
	f.tickets.tickets[old.ID].Status = domain.TicketStatusResolved
	f.tickets.tickets[old.ID].UpdatedAt = fixedNow.Add(-10 * 24 * time.Hour)
	f.tickets.tickets[fresh.ID].Status = domain.TicketStatusResolved
	f.tickets.tickets[fresh.ID].UpdatedAt = fixedNow.Add(-time.Hour)

	closed, err := f.svc.AutoCloseResolved(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.Equal(t, domain.TicketStatusClosed, f.tickets.tickets[old.ID].Status)
	assert.Equal(t, domain.TicketStatusResolved, f.tickets.tickets[fresh.ID].Status)

	history, _ := f.history.ListByTicket(context.Background(), old.ID)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].ChangedByID)
}

func TestGetAttachment_ScopedThroughTicket(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.create(t, f.globexCustomer)
	attachment, err := f.svc.AddAttachment(ctx, contextFor(f.globexCustomer), ticket.ID, upload("contract.txt", "globex secret"), nil)
	require.NoError(t, err)

	got, body, err := f.svc.GetAttachment(ctx, contextFor(f.globexSupport), ticket.ID, attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, "contract.txt", got.FileName)
	assert.Equal(t, "globex secret", string(body))

	_, _, err = f.svc.GetAttachment(ctx, contextFor(f.acmeSupport), ticket.ID, attachment.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	other := f.create(t, f.globexCustomer)
	_, _, err = f.svc.GetAttachment(ctx, contextFor(f.globexSupport), other.ID, attachment.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	_, _, err = f.svc.GetAttachment(ctx, contextFor(f.superAdmin), ticket.ID, attachment.ID)
	require.NoError(t, err)

	f.files.contents = nil
	_, _, err = f.svc.GetAttachment(ctx, contextFor(f.globexSupport), ticket.ID, attachment.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestAddAttachment_RejectsOverlongName(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.create(t, f.acmeCustomer)

	_, err := f.svc.AddAttachment(context.Background(), contextFor(f.acmeCustomer), ticket.ID, upload(strings.Repeat("a", 300)+".txt", "boom"), nil)
	requireCode(t, err, apperrors.CodeValidation)
	assert.Empty(t, f.files.stored)
}
