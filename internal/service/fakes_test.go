package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/email"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func checkViolation(constraint string) error {
	return &pgconn.PgError{Code: "23514", ConstraintName: constraint}
}

type fakeTickets struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	numbers map[string]struct{}
	history *fakeHistory
	// beforeCreate runs between the count and the insert to widen races.
	beforeCreate func()
}

func newFakeTickets(history *fakeHistory) *fakeTickets {
	return &fakeTickets{
		tickets: make(map[string]*domain.Ticket),
		numbers: make(map[string]struct{}),
		history: history,
	}
}

func (f *fakeTickets) CountByNumberPrefix(_ context.Context, prefix string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for number := range f.numbers {
		if strings.HasPrefix(number, prefix) {
			count++
		}
	}
	return count, nil
}

func (f *fakeTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.numbers[ticket.TicketNumber]; taken {
		return repository.ErrTicketNumberTaken
	}
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now().UTC()
	ticket.UpdatedAt = ticket.CreatedAt
	f.numbers[ticket.TicketNumber] = struct{}{}
	stored := *ticket
	f.tickets[ticket.ID] = &stored
	return nil
}

func (f *fakeTickets) Get(_ context.Context, scope access.Scope, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok || !scope.AllowsID(ticket.CompanyID) {
		return nil, pgx.ErrNoRows
	}
	out := *ticket
	return &out, nil
}

func (f *fakeTickets) GetView(ctx context.Context, scope access.Scope, id string) (*domain.TicketView, error) {
	ticket, err := f.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return &domain.TicketView{Ticket: *ticket}, nil
}

func (f *fakeTickets) List(_ context.Context, scope access.Scope, filter repository.TicketFilter, page repository.Page) (repository.PageResult[domain.TicketView], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.TicketView
	for _, ticket := range f.tickets {
		if !scope.AllowsID(ticket.CompanyID) {
			continue
		}
		if filter.CompanyID != nil && ticket.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.AssignedTo != nil && !sameID(ticket.AssignedToUserID, filter.AssignedTo) {
			continue
		}
		matched = append(matched, domain.TicketView{Ticket: *ticket})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].TicketNumber > matched[j].TicketNumber })
	result := repository.PageResult[domain.TicketView]{TotalCount: len(matched), Page: page}
	start := page.Offset()
	if start < len(matched) {
		end := start + page.Size
		if end > len(matched) {
			end = len(matched)
		}
		result.Items = matched[start:end]
	}
	return result, nil
}

func (f *fakeTickets) Mutate(ctx context.Context, scope access.Scope, id string, mutate repository.TicketMutation) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[id]
	if !ok || !scope.AllowsID(stored.CompanyID) {
		return nil, pgx.ErrNoRows
	}
	working := *stored
	history, err := mutate(&working)
	if err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now().UTC()
	*stored = working
	for i := range history {
		history[i].TicketID = id
		_ = f.history.Create(ctx, &history[i])
	}
	out := working
	return &out, nil
}

func (f *fakeTickets) CountByCompany(_ context.Context, companyID string, filter repository.TicketCountFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, ticket := range f.tickets {
		if ticket.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.CreatedSince != nil && ticket.CreatedAt.Before(*filter.CreatedSince) {
			continue
		}
		count++
	}
	return count, nil
}

func (f *fakeTickets) CloseResolvedBefore(_ context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var closed []domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.Status == domain.TicketStatusResolved && ticket.UpdatedAt.Before(cutoff) {
			ticket.Status = domain.TicketStatusClosed
			closed = append(closed, *ticket)
		}
	}
	return closed, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (f *fakeHistory) Create(_ context.Context, h *domain.TicketHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h.ID = uuid.NewString()
	f.entries = append(f.entries, *h)
	return nil
}

func (f *fakeHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range f.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeComments struct {
	mu       sync.Mutex
	comments []domain.Comment
}

func (f *fakeComments) Create(_ context.Context, c *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeComments) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.CommentView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CommentView
	for _, c := range f.comments {
		if c.TicketID == ticketID && (includeInternal || !c.Internal) {
			out = append(out, domain.CommentView{Comment: c})
		}
	}
	return out, nil
}

type fakeAttachments struct {
	mu    sync.Mutex
	items []domain.Attachment
	fail  error
}

func (f *fakeAttachments) Create(_ context.Context, a *domain.Attachment) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = uuid.NewString()
	f.items = append(f.items, *a)
	return nil
}

func (f *fakeAttachments) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Attachment
	for _, a := range f.items {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttachments) Get(_ context.Context, ticketID, id string) (*domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.items {
		if a.ID == id && a.TicketID == ticketID {
			out := a
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeFiles struct {
	storeErr error
	stored   []string
	deleted  []string
	contents map[string][]byte
}

func (f *fakeFiles) ValidateType(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".txt") || strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func (f *fakeFiles) ValidateSize(size int64) bool { return size > 0 && size <= 1024 }

func (f *fakeFiles) Store(_ context.Context, name, folder string, r io.Reader) (*storage.StoredFile, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	handle := folder + "/" + name
	f.stored = append(f.stored, handle)
	if f.contents == nil {
		f.contents = map[string][]byte{}
	}
	f.contents[handle] = body
	return &storage.StoredFile{Handle: handle, OriginalName: name, Size: int64(len(body)), ContentType: "text/plain"}, nil
}

func (f *fakeFiles) Retrieve(_ context.Context, handle string) ([]byte, error) {
	body, ok := f.contents[handle]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return body, nil
}

func (f *fakeFiles) Delete(_ context.Context, handle string) (bool, error) {
	f.deleted = append(f.deleted, handle)
	delete(f.contents, handle)
	return true, nil
}

type fakeUsers struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newFakeUsers(accounts ...*domain.Account) *fakeUsers {
	f := &fakeUsers{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		f.accounts[a.ID] = a
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, a *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return uniqueViolation(repository.ConstraintUserEmail)
		}
	}
	a.ID = uuid.NewString()
	stored := *a
	f.accounts[a.ID] = &stored
	return nil
}

func (f *fakeUsers) Update(_ context.Context, a *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *a
	f.accounts[a.ID] = &stored
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.PasswordHash = hash
	return nil
}

func (f *fakeUsers) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.IsActive = false
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, scope access.Scope, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok || !scope.Allows(a.CompanyID) {
		return nil, pgx.ErrNoRows
	}
	out := *a
	return &out, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, address string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if strings.EqualFold(a.Email, address) {
			out := *a
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) List(_ context.Context, scope access.Scope, filter repository.UserFilter, page repository.Page) (repository.PageResult[domain.AccountSummary], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := repository.PageResult[domain.AccountSummary]{Page: page}
	for _, a := range f.accounts {
		if !scope.Allows(a.CompanyID) || (!filter.IncludeInactive && !a.IsActive) {
			continue
		}
		if filter.CompanyID != nil && !sameID(a.CompanyID, filter.CompanyID) {
			continue
		}
		result.Items = append(result.Items, domain.AccountSummary{Account: *a})
	}
	result.TotalCount = len(result.Items)
	return result, nil
}

func (f *fakeUsers) ListActiveByCompanyAndRoles(_ context.Context, companyID string, roles []domain.Role) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Account
	for _, a := range f.accounts {
		if !a.IsActive || a.CompanyID == nil || *a.CompanyID != companyID {
			continue
		}
		if hasAnyRole(a.Roles, roles) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) CountByCompany(_ context.Context, companyID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.accounts {
		if a.IsActive && a.CompanyID != nil && *a.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

func (f *fakeUsers) CountByRole(_ context.Context, role domain.Role) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.accounts {
		if hasAnyRole(a.Roles, []domain.Role{role}) {
			count++
		}
	}
	return count, nil
}

func hasAnyRole(have, want []domain.Role) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

type fakeCompanies struct {
	mu        sync.Mutex
	companies map[string]*domain.Company
}

func newFakeCompanies(companies ...*domain.Company) *fakeCompanies {
	f := &fakeCompanies{companies: make(map[string]*domain.Company)}
	for _, c := range companies {
		f.companies[c.ID] = c
	}
	return f
}

func (f *fakeCompanies) Create(_ context.Context, c *domain.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.companies {
		if existing.DatabaseName == c.DatabaseName {
			return uniqueViolation(repository.ConstraintCompanyDatabaseName)
		}
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	stored := *c
	f.companies[c.ID] = &stored
	return nil
}

func (f *fakeCompanies) Update(_ context.Context, c *domain.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.companies[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	if c.TicketCredits < 0 {
		return checkViolation(repository.ConstraintCompanyCredits)
	}
	stored := *c
	f.companies[c.ID] = &stored
	return nil
}

func (f *fakeCompanies) GetByID(_ context.Context, scope access.Scope, id string) (*domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[id]
	if !ok || !scope.AllowsID(c.ID) {
		return nil, pgx.ErrNoRows
	}
	out := *c
	return &out, nil
}

func (f *fakeCompanies) List(_ context.Context, scope access.Scope, includeInactive bool, page repository.Page) (repository.PageResult[domain.CompanySummary], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := repository.PageResult[domain.CompanySummary]{Page: page}
	for _, c := range f.companies {
		if !scope.AllowsID(c.ID) || (!includeInactive && !c.IsActive) {
			continue
		}
		result.Items = append(result.Items, domain.CompanySummary{Company: *c})
	}
	sort.Slice(result.Items, func(i, j int) bool { return result.Items[i].Name < result.Items[j].Name })
	result.TotalCount = len(result.Items)
	return result, nil
}

func (f *fakeCompanies) AddCredits(_ context.Context, id string, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	if c.TicketCredits+delta < 0 {
		return 0, checkViolation(repository.ConstraintCompanyCredits)
	}
	c.TicketCredits += delta
	return c.TicketCredits, nil
}

func (f *fakeCompanies) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.IsActive = false
	return nil
}

type fakeCatalog struct {
	types      map[string]*domain.TicketType
	categories map[string]*domain.Category
	modules    map[string]*domain.Module
	fields     map[string]*domain.FormField
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		types: map[string]*domain.TicketType{
			"tt-support": {ID: "tt-support", Name: "Support", IsActive: true},
			"tt-retired": {ID: "tt-retired", Name: "Retired", IsActive: false},
		},
		categories: map[string]*domain.Category{
			"cat-erp": {ID: "cat-erp", Name: "ERP", IsActive: true},
			"cat-crm": {ID: "cat-crm", Name: "CRM", IsActive: true},
		},
		modules: map[string]*domain.Module{
			"mod-ledger": {ID: "mod-ledger", CategoryID: "cat-erp", Name: "Ledger", IsActive: true},
		},
		fields: map[string]*domain.FormField{},
	}
}

func (f *fakeCatalog) ListTicketTypes(_ context.Context, includeInactive bool, page repository.Page) (repository.PageResult[domain.TicketType], error) {
	result := repository.PageResult[domain.TicketType]{Page: page}
	for _, t := range f.types {
		if includeInactive || t.IsActive {
			result.Items = append(result.Items, *t)
		}
	}
	sort.Slice(result.Items, func(i, j int) bool { return result.Items[i].Name < result.Items[j].Name })
	result.TotalCount = len(result.Items)
	return result, nil
}

func (f *fakeCatalog) GetTicketType(_ context.Context, id string) (*domain.TicketType, error) {
	t, ok := f.types[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *t
	return &out, nil
}

func (f *fakeCatalog) CreateTicketType(_ context.Context, t *domain.TicketType) error {
	t.ID = uuid.NewString()
	stored := *t
	f.types[t.ID] = &stored
	return nil
}

func (f *fakeCatalog) UpdateTicketType(_ context.Context, t *domain.TicketType) error {
	if _, ok := f.types[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *t
	f.types[t.ID] = &stored
	return nil
}

func (f *fakeCatalog) ListCategories(_ context.Context, page repository.Page) (repository.PageResult[domain.Category], error) {
	result := repository.PageResult[domain.Category]{Page: page}
	for _, c := range f.categories {
		result.Items = append(result.Items, *c)
	}
	sort.Slice(result.Items, func(i, j int) bool { return result.Items[i].Name < result.Items[j].Name })
	result.TotalCount = len(result.Items)
	return result, nil
}

func (f *fakeCatalog) GetCategory(_ context.Context, id string) (*domain.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *c
	return &out, nil
}

func (f *fakeCatalog) CreateCategory(_ context.Context, c *domain.Category) error {
	c.ID = uuid.NewString()
	stored := *c
	f.categories[c.ID] = &stored
	return nil
}

func (f *fakeCatalog) ListModules(_ context.Context, categoryID string) ([]domain.Module, error) {
	var out []domain.Module
	for _, m := range f.modules {
		if m.CategoryID == categoryID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetModule(_ context.Context, id string) (*domain.Module, error) {
	m, ok := f.modules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *m
	return &out, nil
}

func (f *fakeCatalog) CreateModule(_ context.Context, m *domain.Module) error {
	m.ID = uuid.NewString()
	stored := *m
	f.modules[m.ID] = &stored
	return nil
}

func (f *fakeCatalog) ListFormFields(_ context.Context, ticketTypeID string) ([]domain.FormField, error) {
	var out []domain.FormField
	for _, field := range f.fields {
		if field.TicketTypeID == ticketTypeID && field.IsActive {
			out = append(out, *field)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetFormField(_ context.Context, id string) (*domain.FormField, error) {
	field, ok := f.fields[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *field
	return &out, nil
}

func (f *fakeCatalog) CreateFormField(_ context.Context, field *domain.FormField) error {
	field.ID = uuid.NewString()
	stored := *field
	f.fields[field.ID] = &stored
	return nil
}

func (f *fakeCatalog) UpdateFormField(_ context.Context, field *domain.FormField) error {
	if _, ok := f.fields[field.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *field
	f.fields[field.ID] = &stored
	return nil
}

func (f *fakeCatalog) DeactivateFormField(_ context.Context, id string) error {
	field, ok := f.fields[id]
	if !ok {
		return pgx.ErrNoRows
	}
	field.IsActive = false
	return nil
}

type fakeSettings struct {
	mu       sync.Mutex
	settings map[string]*domain.SystemSetting
}

func newFakeSettings(settings ...domain.SystemSetting) *fakeSettings {
	f := &fakeSettings{settings: make(map[string]*domain.SystemSetting)}
	for i := range settings {
		s := settings[i]
		f.settings[s.Key] = &s
	}
	return f
}

func (f *fakeSettings) List(_ context.Context, filter repository.SettingFilter) ([]domain.SystemSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SystemSetting
	for _, s := range f.settings {
		if filter.VisibleOnly && !s.IsVisible {
			continue
		}
		if filter.Category != nil && !sameID(s.Category, filter.Category) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeSettings) GetByKey(_ context.Context, key string) (*domain.SystemSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *s
	return &out, nil
}

func (f *fakeSettings) Create(_ context.Context, s *domain.SystemSetting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.settings[s.Key]; ok {
		return uniqueViolation(repository.ConstraintSettingKey)
	}
	s.ID = uuid.NewString()
	stored := *s
	f.settings[s.Key] = &stored
	return nil
}

func (f *fakeSettings) UpdateValue(_ context.Context, key, value string) (*domain.SystemSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[key]
	if !ok || s.IsSystemSetting {
		return nil, pgx.ErrNoRows
	}
	s.Value = value
	out := *s
	return &out, nil
}

func (f *fakeSettings) ResetDefaults(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key, s := range f.settings {
		if s.DefaultValue != nil && !s.IsSystemSetting {
			s.Value = *s.DefaultValue
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeSettings) Categories(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, s := range f.settings {
		if s.Category == nil {
			continue
		}
		if _, ok := seen[*s.Category]; !ok {
			seen[*s.Category] = struct{}{}
			out = append(out, *s.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
	fail error
}

func (r *recordingSender) Send(_ context.Context, msg email.Message) error {
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, msg := range r.sent {
		out = append(out, msg.To...)
	}
	sort.Strings(out)
	return out
}

type mapCache map[string]string

func (m mapCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapCache) Set(_ context.Context, key, value string) { m[key] = value }

func (m mapCache) Invalidate(_ context.Context, keys ...string) {
	for _, k := range keys {
		delete(m, k)
	}
}
