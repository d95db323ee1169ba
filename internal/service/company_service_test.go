package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func intPtr(v int) *int { return &v }

func TestCompanyService_CreateAndCredits(t *testing.T) {
	ctx := context.Background()
	root := contextFor(account("root", "", domain.RoleSuperAdmin))
	companies := newFakeCompanies()
	svc := NewCompanyService(CompanyDependencies{
		CompanyRepo: companies,
		UserRepo:    newFakeUsers(),
		TicketRepo:  newFakeTickets(&fakeHistory{}),
	})

	_, err := svc.Create(ctx, contextFor(account("alice", acmeID, domain.RoleAdmin)), CompanyInput{Name: "Acme", DatabaseName: "acme"})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = svc.Create(ctx, root, CompanyInput{Name: "Acme", DatabaseName: "acme-db"})
	requireCode(t, err, apperrors.CodeValidation)

	acme, err := svc.Create(ctx, root, CompanyInput{Name: "Acme", DatabaseName: "acme_db", MonthlyTicketLimit: intPtr(50)})
	require.NoError(t, err)
	assert.Equal(t, 100, acme.TicketCredits)
	assert.Equal(t, domain.PlanBasic, acme.PlanType)

	_, err = svc.Create(ctx, root, CompanyInput{Name: "Acme 2", DatabaseName: "acme_db"})
	requireCode(t, err, apperrors.CodeConflict)

	detail, err := svc.Get(ctx, root, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, detail.Company.MonthlyTicketLimit)

	balance, err := svc.AddCredits(ctx, root, acme.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, 125, balance)
	detail, err = svc.Get(ctx, root, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 125, detail.Company.TicketCredits)

	for _, delta := range []int{0, -5, 10001} {
		_, err = svc.AddCredits(ctx, root, acme.ID, delta)
		requireCode(t, err, apperrors.CodeValidation)
	}
}

func TestCompanyService_AdminScope(t *testing.T) {
	ctx := context.Background()
	acme := &domain.Company{ID: acmeID, Name: "Acme", DatabaseName: "acme", TicketCredits: 10, PlanType: domain.PlanBasic, IsActive: true}
	globex := &domain.Company{ID: globexID, Name: "Globex", DatabaseName: "globex", PlanType: domain.PlanFree, IsActive: true}
	svc := NewCompanyService(CompanyDependencies{
		CompanyRepo: newFakeCompanies(acme, globex),
		UserRepo:    newFakeUsers(),
		TicketRepo:  newFakeTickets(&fakeHistory{}),
	})
	admin := contextFor(account("alice", acmeID, domain.RoleAdmin))

	list, err := svc.List(ctx, admin, true, repository.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Acme", list.Items[0].Name)

	_, err = svc.Get(ctx, admin, globexID)
	requireCode(t, err, apperrors.CodeNotFound)

	phone := "555-0100"
	updated, err := svc.Update(ctx, admin, acmeID, CompanyInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", *updated.Phone)

	_, err = svc.Update(ctx, admin, acmeID, CompanyInput{TicketCredits: intPtr(1000)})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = svc.List(ctx, contextFor(account("sam", acmeID, domain.RoleSupport)), false, repository.NewPage(1, 10))
	requireCode(t, err, apperrors.CodeForbidden)
}

// SuperAdmin creates Acme, an Acme admin raises a ticket, support picks it
// up, and a customer of another tenant cannot see it.
func TestAcmeScenario(t *testing.T) {
	ctx := context.Background()
	root := account("root", "", domain.RoleSuperAdmin)
	companies := newFakeCompanies(&domain.Company{ID: globexID, Name: "Globex", DatabaseName: "globex", IsActive: true})
	users := newFakeUsers(root)
	history := &fakeHistory{}
	tickets := newFakeTickets(history)

	companySvc := NewCompanyService(CompanyDependencies{CompanyRepo: companies, UserRepo: users, TicketRepo: tickets})
	userSvc := NewUserService(UserDependencies{UserRepo: users, CompanyRepo: companies, BcryptCost: 4})
	ticketSvc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		CommentRepo:    &fakeComments{},
		AttachmentRepo: &fakeAttachments{},
		HistoryRepo:    history,
		CatalogRepo:    newFakeCatalog(),
		UserRepo:       users,
		Now:            func() time.Time { return fixedNow },
	})

	plan := "BASIC"
	acme, err := companySvc.Create(ctx, contextFor(root), CompanyInput{Name: "Acme", DatabaseName: "acme", PlanType: &plan, TicketCredits: intPtr(100)})
	require.NoError(t, err)

	newAccount := func(email string, companyID string, role domain.Role) *domain.Account {
		a, err := userSvc.Create(ctx, contextFor(root), UserInput{
			FirstName: email, Email: email + "@example.test", Password: "secret1",
			CompanyID: &companyID, Roles: []string{string(role)},
		})
		require.NoError(t, err)
		return a
	}
	admin := newAccount("admin", acme.ID, domain.RoleAdmin)
	support := newAccount("support", acme.ID, domain.RoleSupport)
	outsider := newAccount("outsider", globexID, domain.RoleCustomer)

	ticket, err := ticketSvc.CreateTicket(ctx, contextFor(admin), TicketCreateInput{Title: "VPN down", Description: "since 9am", TicketTypeID: "tt-support"})
	require.NoError(t, err)
	assert.Equal(t, "TK-2024-08-001", ticket.TicketNumber)

	moved, err := ticketSvc.UpdateStatus(ctx, contextFor(support), ticket.ID, StatusUpdateInput{Status: "InProgress", AssignedToUserID: &support.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, moved.Status)

	_, err = ticketSvc.GetTicket(ctx, contextFor(outsider), ticket.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	detail, err := companySvc.Get(ctx, contextFor(root), acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Stats.TicketCount)
	assert.Equal(t, 2, detail.Stats.UserCount)
	assert.Equal(t, 100, detail.Company.TicketCredits)
}

func TestScopeOrForbidden_ExplainsMissingTenant(t *testing.T) {
	_, err := scopeOrForbidden(access.RequestContext{AccountID: "x", Roles: []domain.Role{domain.RoleSupport}}, access.ResourceTicket)
	requireCode(t, err, apperrors.CodeForbidden)
	assert.Contains(t, err.Error(), "not assigned to a company")
}
